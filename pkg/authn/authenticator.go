package authn

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Authenticator answers "who is this request from". It is stateless: every
// call re-verifies the credential with the provider.
type Authenticator interface {
	// Authenticate verifies a bearer credential and returns the Principal it
	// belongs to. The "Bearer " prefix is accepted and stripped.
	Authenticate(ctx context.Context, credential string) (*Principal, error)
}

type authenticator struct {
	verifier TokenVerifier
	timeout  time.Duration
	log      *slog.Logger
}

// AuthenticatorOption configures the authenticator.
type AuthenticatorOption func(*authenticator)

// WithTimeout bounds the provider call. Exceeding it surfaces as
// ErrServiceUnavailable.
func WithTimeout(d time.Duration) AuthenticatorOption {
	return func(a *authenticator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the authenticator.
func WithLogger(log *slog.Logger) AuthenticatorOption {
	return func(a *authenticator) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAuthenticator creates an Authenticator over the given verifier.
// Panics on a nil verifier to fail fast during initialization.
func NewAuthenticator(verifier TokenVerifier, opts ...AuthenticatorOption) Authenticator {
	if verifier == nil {
		panic("authn: TokenVerifier is required")
	}

	a := &authenticator{
		verifier: verifier,
		timeout:  5 * time.Second,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *authenticator) Authenticate(ctx context.Context, credential string) (*Principal, error) {
	credential = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(credential), "Bearer "))
	if credential == "" {
		return nil, ErrUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	principal, err := a.verifier.Verify(ctx, credential)
	if err != nil {
		a.log.DebugContext(ctx, "credential verification failed", "error", err)
		return nil, err
	}

	return principal, nil
}
