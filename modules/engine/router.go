package engine

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aidehq/aide/handler"
	"github.com/aidehq/aide/pkg/admin"
	"github.com/aidehq/aide/pkg/binder"
	"github.com/aidehq/aide/pkg/captcha"
	"github.com/aidehq/aide/pkg/promo"
	"github.com/aidehq/aide/pkg/quota"
	"github.com/aidehq/aide/pkg/requestid"
	"github.com/aidehq/aide/pkg/session"
	"github.com/aidehq/aide/pkg/subscription"
)

// RouterOptions wires the domain services into the HTTP surface. All
// services are required except Logger.
type RouterOptions struct {
	Sessions      session.Resolver
	Admins        admin.Resolver
	Subscriptions subscription.Manager
	Quotas        quota.Tracker
	Promos        promo.Applier
	Captcha       captcha.Verifier
	Logger        *slog.Logger
}

type service struct {
	sessions      session.Resolver
	admins        admin.Resolver
	subscriptions subscription.Manager
	quotas        quota.Tracker
	promos        promo.Applier
	captcha       captcha.Verifier
	log           *slog.Logger
}

// wrapJSON wraps a handler whose request type binds from a JSON body.
func wrapJSON[R any](eh handler.ErrorHandler[handler.Context], h handler.HandlerFunc[handler.Context, R]) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binder.JSON()),
		handler.WithErrorHandler[handler.Context, R](eh),
	)
}

// Router builds the engine's HTTP API.
//
//	r := chi.NewRouter()
//	r.Mount("/api/v1", engine.Router(engine.RouterOptions{...}))
func Router(opts RouterOptions) chi.Router {
	if opts.Sessions == nil {
		panic("engine: session.Resolver is required")
	}
	if opts.Admins == nil {
		panic("engine: admin.Resolver is required")
	}
	if opts.Subscriptions == nil {
		panic("engine: subscription.Manager is required")
	}
	if opts.Quotas == nil {
		panic("engine: quota.Tracker is required")
	}
	if opts.Promos == nil {
		panic("engine: promo.Applier is required")
	}
	if opts.Captcha == nil {
		panic("engine: captcha.Verifier is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &service{
		sessions:      opts.Sessions,
		admins:        opts.Admins,
		subscriptions: opts.Subscriptions,
		quotas:        opts.Quotas,
		promos:        opts.Promos,
		captcha:       opts.Captcha,
		log:           opts.Logger,
	}

	errorHandler := handler.NewErrorHandler[handler.Context](s.log)

	wrap := func(h handler.HandlerFunc[handler.Context, struct{}]) http.HandlerFunc {
		return handler.Wrap(h,
			handler.WithErrorHandler[handler.Context, struct{}](errorHandler),
		)
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestid.Middleware)

	// Provider webhooks authenticate by signature, not bearer token.
	r.Post("/webhooks/billing", s.billingWebhook)

	r.Group(func(r chi.Router) {
		r.Use(authenticate(s.sessions, s.log))

		r.Route("/me", func(r chi.Router) {
			r.Get("/admin", wrap(s.adminStatus))
			r.Get("/entitlement", wrap(s.entitlement))
			r.Post("/usage", wrapJSON(errorHandler, s.consume))
			r.Post("/checkout", wrapJSON(errorHandler, s.checkout))
			r.Get("/portal", wrap(s.portalLink))
			r.Post("/subscription/cancel", wrapJSON(errorHandler, s.cancelSubscription))
			r.Post("/promo", wrapJSON(errorHandler, s.redeemPromo))
			r.Post("/logout", wrap(s.logout))
		})

		r.Post("/admin/login", wrapJSON(errorHandler, s.adminLogin))

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin(s.admins, s.log))

			r.Route("/admins", func(r chi.Router) {
				r.Use(requirePermission(admin.PermManageAdmins, s.log))
				r.Get("/", wrap(s.listAdmins))
				r.Post("/", wrapJSON(errorHandler, s.grantAdmin))
				r.Delete("/{id}", wrap(s.revokeAdmin))
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Use(requirePermission(admin.PermManageSubscriptions, s.log))
				r.Get("/", wrap(s.listSubscriptions))
				r.Get("/{id}", wrap(s.getSubscription))
				r.Post("/{id}/grant", wrapJSON(errorHandler, s.grantSubscription))
				r.Post("/{id}/revoke", wrapJSON(errorHandler, s.revokeSubscription))
			})

			r.Route("/promo-codes", func(r chi.Router) {
				r.Use(requirePermission(admin.PermManagePromoCodes, s.log))
				r.Get("/", wrap(s.listPromoCodes))
				r.Post("/", wrapJSON(errorHandler, s.createPromoCode))
				r.Patch("/{code}", wrapJSON(errorHandler, s.updatePromoCode))
				r.Delete("/{code}", wrap(s.deactivatePromoCode))
			})
		})
	})

	return r
}
