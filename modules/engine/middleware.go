package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aidehq/aide/handler"
	"github.com/aidehq/aide/pkg/admin"
	"github.com/aidehq/aide/pkg/authn"
	"github.com/aidehq/aide/pkg/logger"
	"github.com/aidehq/aide/pkg/session"
)

var adminCtxKey = handler.NewContextKey("engine.admin_record")

// adminFromContext returns the admin record resolved by the admin gate.
func adminFromContext(ctx context.Context) (*admin.Record, bool) {
	return handler.ContextValue[*admin.Record](ctx, adminCtxKey)
}

// renderError writes a domain error as a JSON error body after mapping it
// through the transport taxonomy.
func renderError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	httpErr := asHTTPError(err)
	if renderErr := handler.JSONError(httpErr).Render(w, r); renderErr != nil {
		log.ErrorContext(r.Context(), "failed to render error response",
			logger.Error(renderErr),
			logger.Component("engine"),
		)
	}
}

// authenticate resolves the bearer credential into a principal and stores it
// in the request context. Requests without a verifiable credential stop here.
func authenticate(sessions session.Resolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := r.Header.Get("Authorization")
			if credential == "" {
				renderError(w, r, log, authn.ErrUnauthenticated)
				return
			}

			principal, err := sessions.Resolve(r.Context(), credential)
			if err != nil {
				renderError(w, r, log, err)
				return
			}

			ctx := authn.SetPrincipalToContext(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireAdmin resolves the caller's admin record and stores it in the
// request context. Non-admins are rejected with forbidden, not not-found;
// the existence of back-office routes is not advertised.
func requireAdmin(admins admin.Resolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := authn.GetPrincipalFromContext(r.Context())
			if !ok {
				renderError(w, r, log, authn.ErrUnauthenticated)
				return
			}

			record, err := admins.Resolve(r.Context(), principal.ID)
			if err != nil {
				// Only established absence reads as forbidden; a store
				// outage must surface as retryable, not as a denial.
				if errors.Is(err, admin.ErrAdminNotFound) {
					err = admin.ErrForbidden
				}
				renderError(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), adminCtxKey, record)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requirePermission gates a route on a single admin permission. Must run
// inside requireAdmin.
func requirePermission(perm admin.Permission, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			record, ok := adminFromContext(r.Context())
			if !ok || !record.HasPermission(perm) {
				renderError(w, r, log, admin.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
