// Package handler provides type-safe HTTP request handling for the engine's
// JSON API.
//
// Handlers are generic functions that bind the request into a typed struct
// and return a Response that knows how to render itself:
//
//	type RedeemRequest struct {
//		Code string `json:"code"`
//		Tier string `json:"tier"`
//	}
//
//	func redeem(ctx handler.Context, req RedeemRequest) handler.Response {
//		sub, err := promos.Apply(ctx, req.Code, principalID, tier)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(sub)
//	}
//
//	r.Post("/me/promo", handler.Wrap(redeem,
//		handler.WithBinders[handler.Context, RedeemRequest](binder.JSON()),
//	))
//
// Binding, error classification, and rendering are cross-cutting: services
// return domain sentinels, the transport layer maps them to HTTPError, and
// the shared error handler logs and renders a structured JSON error body.
package handler
