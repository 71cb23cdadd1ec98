package quota

import "errors"

var (
	// ErrQuotaExceeded is returned when consuming would push usage past the
	// tier's ceiling. Nothing is consumed.
	ErrQuotaExceeded = errors.New("quota.errors.quota_exceeded")

	// ErrFeatureUnavailable is returned when the tier's limit for the
	// resource is zero: the feature is not part of the tier, as opposed to
	// used up. UIs upsell on this one and show a meter on the other.
	ErrFeatureUnavailable = errors.New("quota.errors.feature_unavailable")

	// ErrUnknownResource is returned for kinds outside the metered set.
	ErrUnknownResource = errors.New("quota.errors.unknown_resource")

	// ErrInvalidAmount is returned for non-positive consumption amounts.
	ErrInvalidAmount = errors.New("quota.errors.invalid_amount")

	// ErrFailedToResolveTier wraps tier resolution failures. Consumption
	// fails closed rather than guessing a tier.
	ErrFailedToResolveTier = errors.New("quota.errors.failed_to_resolve_tier")
)
