package authn

import "errors"

var (
	// ErrUnauthenticated is returned when the provider rejects the
	// credential: expired, revoked, or malformed.
	ErrUnauthenticated = errors.New("authn.errors.unauthenticated")

	// ErrServiceUnavailable is returned when the identity provider cannot be
	// reached. Kept distinct from ErrUnauthenticated so an infra outage is
	// never mistaken for a logged-out user.
	ErrServiceUnavailable = errors.New("authn.errors.service_unavailable")

	// ErrInvalidPrincipalClaims is returned when a verified token carries
	// claims that cannot be mapped to a Principal.
	ErrInvalidPrincipalClaims = errors.New("authn.errors.invalid_principal_claims")
)
