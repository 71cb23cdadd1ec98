package session

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aidehq/aide/pkg/authn"
)

// Resolver answers "who is this request from" with a cache in front of the
// identity provider. Store failures degrade to direct verification.
type Resolver interface {
	// Resolve returns the principal behind the credential, from cache when
	// fresh, from the authenticator otherwise.
	Resolve(ctx context.Context, credential string) (*authn.Principal, error)

	// Invalidate drops the cached session for a single credential. The next
	// Resolve re-verifies with the provider.
	Invalidate(ctx context.Context, credential string) error

	// InvalidatePrincipal drops every cached session of the principal.
	InvalidatePrincipal(ctx context.Context, principalID uuid.UUID) error
}

type resolver struct {
	store Store
	auth  authn.Authenticator
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time
}

// ResolverOption configures the resolver.
type ResolverOption func(*resolver)

// WithTTL sets how long a verified principal stays cached.
func WithTTL(ttl time.Duration) ResolverOption {
	return func(r *resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithLogger sets a custom logger for the resolver.
func WithLogger(log *slog.Logger) ResolverOption {
	return func(r *resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// WithClock overrides the clock used for VerifiedAt stamps. Test hook.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver creates a Resolver over the given store and authenticator.
// Panics on nil dependencies to fail fast during initialization.
func NewResolver(store Store, auth authn.Authenticator, opts ...ResolverOption) Resolver {
	if store == nil {
		panic("session: Store is required")
	}
	if auth == nil {
		panic("session: Authenticator is required")
	}

	r := &resolver{
		store: store,
		auth:  auth,
		ttl:   5 * time.Minute,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *resolver) Resolve(ctx context.Context, credential string) (*authn.Principal, error) {
	key := Key(credential)

	sess, err := r.store.Get(ctx, key)
	if err == nil {
		principal := sess.Principal
		return &principal, nil
	}

	principal, err := r.auth.Authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}

	sess = &Session{Principal: *principal, VerifiedAt: r.now()}
	if err := r.store.Set(ctx, key, sess, r.ttl); err != nil {
		// Caching is best effort; the principal is already verified.
		r.log.WarnContext(ctx, "failed to cache session", "error", err)
	}

	return principal, nil
}

func (r *resolver) Invalidate(ctx context.Context, credential string) error {
	return r.store.Delete(ctx, Key(credential))
}

func (r *resolver) InvalidatePrincipal(ctx context.Context, principalID uuid.UUID) error {
	return r.store.DeletePrincipal(ctx, principalID)
}
