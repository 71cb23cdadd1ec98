package engine

import (
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aidehq/aide/handler"
	"github.com/aidehq/aide/pkg/authn"
	"github.com/aidehq/aide/pkg/subscription"
)

func (s *service) listSubscriptions(ctx handler.Context, _ struct{}) handler.Response {
	subs, err := s.subscriptions.List(ctx)
	if err != nil {
		return handler.JSONError(asHTTPError(err))
	}
	return handler.JSON(subs)
}

func (s *service) getSubscription(ctx handler.Context, _ struct{}) handler.Response {
	principalID, err := uuid.Parse(chi.URLParam(ctx.Request(), "id"))
	if err != nil {
		return handler.JSONError(handler.ErrUnprocessable)
	}

	sub, err := s.subscriptions.Get(ctx, principalID)
	if err != nil {
		return handler.JSONError(asHTTPError(err))
	}
	return handler.JSON(sub)
}

// GrantSubscriptionRequest creates a complimentary subscription.
type GrantSubscriptionRequest struct {
	Tier   subscription.Tier `json:"tier"`
	Months int               `json:"months"`
	Reason string            `json:"reason"`
}

func (s *service) grantSubscription(ctx handler.Context, req GrantSubscriptionRequest) handler.Response {
	acting, ok := adminFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	principalID, err := uuid.Parse(chi.URLParam(ctx.Request(), "id"))
	if err != nil {
		return handler.JSONError(handler.ErrUnprocessable)
	}

	sub, err := s.subscriptions.Grant(ctx, acting, principalID, req.Tier, req.Months, req.Reason)
	if err != nil {
		return handler.JSONError(asHTTPError(err))
	}
	return handler.JSON(sub)
}

// RevokeSubscriptionRequest kills a subscription immediately.
type RevokeSubscriptionRequest struct {
	Reason string `json:"reason"`
}

func (s *service) revokeSubscription(ctx handler.Context, req RevokeSubscriptionRequest) handler.Response {
	acting, ok := adminFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	principalID, err := uuid.Parse(chi.URLParam(ctx.Request(), "id"))
	if err != nil {
		return handler.JSONError(handler.ErrUnprocessable)
	}

	if err := s.subscriptions.Revoke(ctx, acting, principalID, req.Reason); err != nil {
		return handler.JSONError(asHTTPError(err))
	}
	return handler.Empty()
}
