package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Store defines subscription persistence. One record per principal,
// PrincipalID is the primary key.
type Store interface {
	// Get retrieves a subscription by principal ID.
	// Returns ErrSubscriptionNotFound if no record exists.
	Get(ctx context.Context, principalID uuid.UUID) (*Subscription, error)

	// Save creates or replaces a record unconditionally. Used by the
	// back-office paths (grant, revoke, cancel) where the caller holds the
	// freshest copy.
	Save(ctx context.Context, sub *Subscription) error

	// SaveSequenced writes the record only if the stored LastEventSeq still
	// equals expectedSeq (expectedSeq 0 means "no record yet"). A lost race
	// returns ErrStaleEvent and leaves the store untouched. This is what
	// makes concurrent webhook delivery safe.
	SaveSequenced(ctx context.Context, sub *Subscription, expectedSeq int64) error

	// List returns all records, newest first. Back-office only.
	List(ctx context.Context) ([]Subscription, error)
}
