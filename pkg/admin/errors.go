package admin

import "errors"

var (
	// ErrAdminNotFound is returned when a principal has no admin record.
	// Callers treat this as "not an admin", not as a failure.
	ErrAdminNotFound = errors.New("admin.errors.record_not_found")

	// ErrStoreUnavailable is returned when a record lookup failed for
	// infrastructure reasons. Absence could not be established, so callers
	// must surface the outage instead of denying access.
	ErrStoreUnavailable = errors.New("admin.errors.store_unavailable")

	// ErrForbidden is returned when the acting admin lacks the super_admin
	// role required for admin management.
	ErrForbidden = errors.New("admin.errors.forbidden")

	// ErrInvalidRole is returned for roles outside the defined set.
	ErrInvalidRole = errors.New("admin.errors.invalid_role")

	// ErrTargetNotFound is returned when the grant target email does not
	// resolve to any principal.
	ErrTargetNotFound = errors.New("admin.errors.target_not_found")

	// ErrCannotRevokeSelf is returned when an admin tries to revoke their
	// own record.
	ErrCannotRevokeSelf = errors.New("admin.errors.cannot_revoke_self")

	// ErrTargetIsSuperAdmin is returned when revoking a super_admin record.
	// Refusing the revoke guarantees at least one super_admin always exists.
	ErrTargetIsSuperAdmin = errors.New("admin.errors.target_is_super_admin")
)
