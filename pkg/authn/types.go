package authn

import "github.com/google/uuid"

// Principal is the identity the provider vouches for. Read-only to the
// engine; created and owned by the identity provider.
type Principal struct {
	ID            uuid.UUID
	Email         string
	EmailVerified bool
}
