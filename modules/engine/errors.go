package engine

import (
	"errors"
	"net/http"

	"github.com/aidehq/aide/handler"
	"github.com/aidehq/aide/pkg/admin"
	"github.com/aidehq/aide/pkg/authn"
	"github.com/aidehq/aide/pkg/captcha"
	"github.com/aidehq/aide/pkg/promo"
	"github.com/aidehq/aide/pkg/quota"
	"github.com/aidehq/aide/pkg/subscription"
)

// httpStatus maps domain sentinels to the transport taxonomy. Order within
// a status group does not matter; errors.Is walks wrapped chains.
var httpStatus = []struct {
	err  error
	code int
	key  string
}{
	{authn.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},

	{admin.ErrForbidden, http.StatusForbidden, "forbidden"},
	{subscription.ErrForbidden, http.StatusForbidden, "forbidden"},
	{promo.ErrForbidden, http.StatusForbidden, "forbidden"},
	{quota.ErrFeatureUnavailable, http.StatusForbidden, "feature_unavailable"},
	{captcha.ErrVerifyFailed, http.StatusForbidden, "captcha_rejected"},
	{captcha.ErrEmptyToken, http.StatusForbidden, "captcha_rejected"},

	{admin.ErrAdminNotFound, http.StatusNotFound, "admin_not_found"},
	{admin.ErrTargetNotFound, http.StatusNotFound, "target_not_found"},
	{subscription.ErrSubscriptionNotFound, http.StatusNotFound, "subscription_not_found"},

	{quota.ErrQuotaExceeded, http.StatusTooManyRequests, "quota_exceeded"},

	{promo.ErrCodeNotFound, http.StatusUnprocessableEntity, "code_not_found"},
	{promo.ErrCodeInactive, http.StatusUnprocessableEntity, "code_inactive"},
	{promo.ErrCodeExpired, http.StatusUnprocessableEntity, "code_expired"},
	{promo.ErrCodeExhausted, http.StatusUnprocessableEntity, "code_exhausted"},
	{promo.ErrTierNotApplicable, http.StatusUnprocessableEntity, "tier_not_applicable"},
	{promo.ErrInvalidCode, http.StatusUnprocessableEntity, "invalid_code"},
	{quota.ErrUnknownResource, http.StatusUnprocessableEntity, "unknown_resource"},
	{quota.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid_amount"},
	{subscription.ErrInvalidTier, http.StatusUnprocessableEntity, "invalid_tier"},
	{subscription.ErrInvalidGrantPeriod, http.StatusUnprocessableEntity, "invalid_grant_period"},
	{admin.ErrInvalidRole, http.StatusUnprocessableEntity, "invalid_role"},

	{subscription.ErrSubscriptionAlreadyExists, http.StatusConflict, "subscription_already_exists"},
	{subscription.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{subscription.ErrNoProviderSubscription, http.StatusConflict, "no_provider_subscription"},
	{promo.ErrCodeAlreadyExists, http.StatusConflict, "code_already_exists"},
	{admin.ErrCannotRevokeSelf, http.StatusConflict, "cannot_revoke_self"},
	{admin.ErrTargetIsSuperAdmin, http.StatusConflict, "target_is_super_admin"},

	{subscription.ErrWebhookVerificationFailed, http.StatusBadRequest, "webhook_verification_failed"},

	{authn.ErrServiceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	{admin.ErrStoreUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	{captcha.ErrProviderFailure, http.StatusServiceUnavailable, "service_unavailable"},
	{quota.ErrFailedToResolveTier, http.StatusServiceUnavailable, "service_unavailable"},
}

// asHTTPError converts a domain error into the transport error the shared
// error handler renders. Unknown errors stay opaque 500s.
func asHTTPError(err error) error {
	for _, m := range httpStatus {
		if errors.Is(err, m.err) {
			return handler.NewHTTPError(m.code, m.key)
		}
	}
	return handler.ErrInternal
}
