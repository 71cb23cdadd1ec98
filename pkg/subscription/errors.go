package subscription

import "errors"

var (
	// ErrSubscriptionNotFound is returned when a principal has no
	// subscription record at all.
	ErrSubscriptionNotFound = errors.New("subscription.errors.not_found")

	// ErrSubscriptionAlreadyExists is returned by Checkout when the
	// principal already holds an effective subscription.
	ErrSubscriptionAlreadyExists = errors.New("subscription.errors.already_exists")

	// ErrInvalidTransition is returned when a status change is not allowed
	// by the lifecycle table.
	ErrInvalidTransition = errors.New("subscription.errors.invalid_transition")

	// ErrUnknownEventType is returned for billing events the manager does
	// not recognize.
	ErrUnknownEventType = errors.New("subscription.errors.unknown_event_type")

	// ErrStaleEvent is returned by stores when a conditional write loses to
	// a newer event. The manager treats it as an idempotent no-op.
	ErrStaleEvent = errors.New("subscription.errors.stale_event")

	// ErrInvalidTier is returned for tiers outside the defined set, or for
	// operations that require a paid tier.
	ErrInvalidTier = errors.New("subscription.errors.invalid_tier")

	// ErrInvalidPrincipalID is returned when a billing event carries a
	// customer reference that is not one of our principal IDs.
	ErrInvalidPrincipalID = errors.New("subscription.errors.invalid_principal_id")

	// ErrForbidden is returned when Grant or Revoke is attempted by anyone
	// but a super_admin.
	ErrForbidden = errors.New("subscription.errors.forbidden")

	// ErrInvalidGrantPeriod is returned when a complimentary grant asks for
	// a non-positive number of months.
	ErrInvalidGrantPeriod = errors.New("subscription.errors.invalid_grant_period")

	// Provider errors.
	ErrWebhookVerificationFailed = errors.New("subscription.errors.webhook_verification_failed")
	ErrNoCheckoutURL             = errors.New("subscription.errors.no_checkout_url")
	ErrNoPortalURL               = errors.New("subscription.errors.no_portal_url")
	ErrNoProviderSubscription    = errors.New("subscription.errors.no_provider_subscription")
)
