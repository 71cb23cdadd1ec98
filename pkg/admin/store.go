package admin

import (
	"context"

	"github.com/google/uuid"

	"github.com/aidehq/aide/pkg/authn"
)

// Store persists admin records, keyed by principal ID.
type Store interface {
	// Get retrieves the admin record of a principal.
	// Returns ErrAdminNotFound if the principal is not an admin.
	Get(ctx context.Context, principalID uuid.UUID) (*Record, error)

	// Save creates or overwrites an admin record.
	Save(ctx context.Context, record *Record) error

	// Delete removes an admin record.
	// Returns ErrAdminNotFound if no record exists.
	Delete(ctx context.Context, principalID uuid.UUID) error

	// List returns all admin records for the back-office listing.
	List(ctx context.Context) ([]Record, error)
}

// PrincipalDirectory resolves principals by email through the identity
// provider's admin API. Used to locate grant targets.
type PrincipalDirectory interface {
	// LookupByEmail returns the principal registered under email.
	// Returns ErrTargetNotFound when no such principal exists.
	LookupByEmail(ctx context.Context, email string) (*authn.Principal, error)
}
