package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists cached sessions. Implementations must expire entries at
// the given TTL; Get on an expired entry returns ErrSessionNotFound.
type Store interface {
	// Get returns the session cached under key, or ErrSessionNotFound.
	Get(ctx context.Context, key string) (*Session, error)

	// Set caches the session under key for ttl.
	Set(ctx context.Context, key string, sess *Session, ttl time.Duration) error

	// Delete removes a single cached session. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// DeletePrincipal removes every cached session of the principal.
	DeletePrincipal(ctx context.Context, principalID uuid.UUID) error
}
