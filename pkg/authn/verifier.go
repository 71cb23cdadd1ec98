package authn

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
)

// TokenVerifier verifies a raw bearer token with the identity provider and
// maps it to a Principal.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Principal, error)
}

// OIDCConfig configures the identity-provider connection.
type OIDCConfig struct {
	IssuerURL string `env:"OIDC_ISSUER_URL,required"`
	ClientID  string `env:"OIDC_CLIENT_ID,required"`
}

// OIDCVerifier verifies ID tokens issued by an OIDC identity provider.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider configuration and prepares a token
// verifier. Discovery hits the network, so a failure here means the provider
// is unreachable, not that any credential is bad.
func NewOIDCVerifier(ctx context.Context, cfg OIDCConfig) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, errors.Join(ErrServiceUnavailable, err)
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// Verify checks the token signature, expiry, issuer and audience with the
// provider, then maps claims onto a Principal.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Principal, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, classifyVerifyError(err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Join(ErrInvalidPrincipalClaims, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Join(ErrInvalidPrincipalClaims, err)
	}

	return &Principal{
		ID:            id,
		Email:         strings.ToLower(claims.Email),
		EmailVerified: claims.EmailVerified,
	}, nil
}

// classifyVerifyError separates provider outages from bad credentials.
// Verification can hit the network for key rotation, so transport-level
// failures surface here too.
func classifyVerifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(ErrServiceUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Join(ErrServiceUnavailable, err)
	}
	return errors.Join(ErrUnauthenticated, err)
}
