// Package binder provides type-safe HTTP request data binding.
//
// Binders parse request data into tagged struct fields. Each binder handles
// one source and skips requests it does not apply to, so several can be
// stacked on one route:
//
//	type RedeemRequest struct {
//		Code string `json:"code"`
//		Tier string `json:"tier"`
//	}
//
//	r.Post("/me/promo", handler.Wrap(redeem,
//		handler.WithBinders[handler.Context, RedeemRequest](binder.JSON()),
//	))
//
// JSON binding is strict: unknown fields, trailing data, and oversized
// bodies are rejected. Binding errors surface through the route's error
// handler.
package binder
