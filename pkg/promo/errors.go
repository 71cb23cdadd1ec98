package promo

import "errors"

var (
	// Redemption failures, in validation order. The first failing check
	// wins and nothing is mutated.
	ErrCodeNotFound      = errors.New("promo.errors.code_not_found")
	ErrCodeInactive      = errors.New("promo.errors.code_inactive")
	ErrCodeExpired       = errors.New("promo.errors.code_expired") // also covers not-yet-valid
	ErrCodeExhausted     = errors.New("promo.errors.code_exhausted")
	ErrTierNotApplicable = errors.New("promo.errors.tier_not_applicable")

	// ErrInvalidCode is returned for malformed code definitions on the
	// admin CRUD surface.
	ErrInvalidCode = errors.New("promo.errors.invalid_code")

	// ErrCodeAlreadyExists is returned when creating a duplicate code.
	ErrCodeAlreadyExists = errors.New("promo.errors.code_already_exists")

	// ErrForbidden is returned when the acting admin lacks the
	// manage_promo_codes permission.
	ErrForbidden = errors.New("promo.errors.forbidden")
)
