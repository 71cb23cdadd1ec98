package engine

import (
	"errors"
	"net/http"
	"time"

	"github.com/aidehq/aide/handler"
	"github.com/aidehq/aide/pkg/admin"
	"github.com/aidehq/aide/pkg/authn"
	"github.com/aidehq/aide/pkg/quota"
	"github.com/aidehq/aide/pkg/subscription"
)

// AdminStatusResponse reports the caller's back-office standing.
type AdminStatusResponse struct {
	IsAdmin     bool                      `json:"is_admin"`
	Role        admin.Role                `json:"role,omitempty"`
	Permissions map[admin.Permission]bool `json:"permissions,omitempty"`
}

func (s *service) adminStatus(ctx handler.Context, _ struct{}) handler.Response {
	principal, ok := authn.GetPrincipalFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	record, err := s.admins.Resolve(ctx, principal.ID)
	if err != nil {
		// Absence of a record is an answer, not an error. Anything else
		// means absence could not be established.
		if errors.Is(err, admin.ErrAdminNotFound) {
			return handler.JSON(AdminStatusResponse{IsAdmin: false})
		}
		return handler.JSONError(asHTTPError(err))
	}

	return handler.JSON(AdminStatusResponse{
		IsAdmin:     true,
		Role:        record.Role,
		Permissions: record.Permissions,
	})
}

// EntitlementResponse is the dashboard view of a principal's plan.
type EntitlementResponse struct {
	Tier  subscription.Tier                      `json:"tier"`
	Usage map[quota.ResourceKind]quota.UsageInfo `json:"usage"`
}

func (s *service) entitlement(ctx handler.Context, _ struct{}) handler.Response {
	principal, ok := authn.GetPrincipalFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	tier, err := s.subscriptions.EffectiveTier(ctx, principal.ID)
	if err != nil {
		return handler.JSONError(asHTTPError(err))
	}

	usage, err := s.quotas.AllUsage(ctx, principal.ID)
	if err != nil {
		return handler.JSONError(asHTTPError(err))
	}

	return handler.JSON(EntitlementResponse{Tier: tier, Usage: usage})
}

// ConsumeRequest spends quota units of one resource.
type ConsumeRequest struct {
	Kind   quota.ResourceKind `json:"kind"`
	Amount int64              `json:"amount"`
}

// ConsumeResponse reports the allowance left after spending.
type ConsumeResponse struct {
	Remaining int64 `json:"remaining"`
	Unlimited bool  `json:"unlimited"`
}

func (s *service) consume(ctx handler.Context, req ConsumeRequest) handler.Response {
	principal, ok := authn.GetPrincipalFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	if req.Amount == 0 {
		req.Amount = 1
	}

	remaining, err := s.quotas.Consume(ctx, principal.ID, req.Kind, req.Amount)
	if err != nil {
		return handler.JSONError(asHTTPError(err))
	}

	return handler.JSON(ConsumeResponse{
		Remaining: remaining,
		Unlimited: remaining == quota.Unlimited,
	})
}

// CheckoutRequest starts a hosted checkout for a paid tier.
type CheckoutRequest struct {
	Tier       subscription.Tier `json:"tier"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
}

func (s *service) checkout(ctx handler.Context, req CheckoutRequest) handler.Response {
	principal, ok := authn.GetPrincipalFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	link, err := s.subscriptions.Checkout(ctx, principal.ID, req.Tier, subscription.CheckoutOptions{
		Email:      principal.Email,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		return handler.JSONError(asHTTPError(err))
	}

	return handler.JSON(link)
}

func (s *service) portalLink(ctx handler.Context, _ struct{}) handler.Response {
	principal, ok := authn.GetPrincipalFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	link, err := s.subscriptions.CustomerPortalLink(ctx, principal.ID)
	if err != nil {
		return handler.JSONError(asHTTPError(err))
	}

	return handler.JSON(link)
}

// CancelRequest chooses between deferred and immediate cancellation.
type CancelRequest struct {
	Immediate bool `json:"immediate"`
}

func (s *service) cancelSubscription(ctx handler.Context, req CancelRequest) handler.Response {
	principal, ok := authn.GetPrincipalFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	if err := s.subscriptions.Cancel(ctx, principal.ID, req.Immediate); err != nil {
		return handler.JSONError(asHTTPError(err))
	}

	return handler.Empty()
}

// RedeemRequest applies a promo code toward a paid tier.
type RedeemRequest struct {
	Code string            `json:"code"`
	Tier subscription.Tier `json:"tier"`
}

// RedeemResponse confirms the complimentary grant.
type RedeemResponse struct {
	Tier     subscription.Tier `json:"tier"`
	ActiveTo time.Time         `json:"active_to"`
}

func (s *service) redeemPromo(ctx handler.Context, req RedeemRequest) handler.Response {
	principal, ok := authn.GetPrincipalFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	sub, err := s.promos.Apply(ctx, req.Code, principal.ID, req.Tier)
	if err != nil {
		return handler.JSONError(asHTTPError(err))
	}

	return handler.JSON(RedeemResponse{Tier: sub.Tier, ActiveTo: sub.CurrentPeriodEnd})
}

func (s *service) logout(ctx handler.Context, _ struct{}) handler.Response {
	credential := ctx.Request().Header.Get("Authorization")
	if err := s.sessions.Invalidate(ctx, credential); err != nil {
		return handler.JSONError(asHTTPError(err))
	}
	return handler.EmptyWithStatus(http.StatusNoContent)
}
