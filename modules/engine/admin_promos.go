package engine

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aidehq/aide/handler"
	"github.com/aidehq/aide/pkg/authn"
	"github.com/aidehq/aide/pkg/promo"
	"github.com/aidehq/aide/pkg/subscription"
)

// PromoCodeRequest carries the editable fields of a promo code.
type PromoCodeRequest struct {
	Code            string              `json:"code"`
	DiscountType    promo.DiscountType  `json:"discount_type"`
	DiscountValue   int64               `json:"discount_value"`
	GrantMonths     int                 `json:"grant_months"`
	MaxUses         *int                `json:"max_uses,omitempty"`
	ValidFrom       time.Time           `json:"valid_from"`
	ValidUntil      *time.Time          `json:"valid_until,omitempty"`
	ApplicableTiers []subscription.Tier `json:"applicable_tiers,omitempty"`
	IsActive        bool                `json:"is_active"`
}

func (r PromoCodeRequest) toCode() *promo.Code {
	return &promo.Code{
		Code:            r.Code,
		DiscountType:    r.DiscountType,
		DiscountValue:   r.DiscountValue,
		GrantMonths:     r.GrantMonths,
		MaxUses:         r.MaxUses,
		ValidFrom:       r.ValidFrom,
		ValidUntil:      r.ValidUntil,
		ApplicableTiers: r.ApplicableTiers,
		IsActive:        r.IsActive,
	}
}

func (s *service) listPromoCodes(ctx handler.Context, _ struct{}) handler.Response {
	acting, ok := adminFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	codes, err := s.promos.List(ctx, acting)
	if err != nil {
		return handler.JSONError(asHTTPError(err))
	}
	return handler.JSON(codes)
}

func (s *service) createPromoCode(ctx handler.Context, req PromoCodeRequest) handler.Response {
	acting, ok := adminFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	code := req.toCode()
	if err := s.promos.Create(ctx, acting, code); err != nil {
		return handler.JSONError(asHTTPError(err))
	}
	return handler.JSON(code)
}

func (s *service) updatePromoCode(ctx handler.Context, req PromoCodeRequest) handler.Response {
	acting, ok := adminFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	code := req.toCode()
	code.Code = chi.URLParam(ctx.Request(), "code")
	if err := s.promos.Update(ctx, acting, code); err != nil {
		return handler.JSONError(asHTTPError(err))
	}
	return handler.JSON(code)
}

func (s *service) deactivatePromoCode(ctx handler.Context, _ struct{}) handler.Response {
	acting, ok := adminFromContext(ctx)
	if !ok {
		return handler.JSONError(asHTTPError(authn.ErrUnauthenticated))
	}

	if err := s.promos.Deactivate(ctx, acting, chi.URLParam(ctx.Request(), "code")); err != nil {
		return handler.JSONError(asHTTPError(err))
	}
	return handler.Empty()
}
