package promo

import "context"

// Store persists promo codes and their redemptions.
type Store interface {
	// GetByCode retrieves a code by its normalized form.
	// Returns ErrCodeNotFound if absent.
	GetByCode(ctx context.Context, code string) (*Code, error)

	// Create inserts a new code. Returns ErrCodeAlreadyExists on a
	// duplicate normalized code.
	Create(ctx context.Context, code *Code) error

	// Update replaces the code's definition. CurrentUses is not writable
	// through Update; only Redeem moves it.
	Update(ctx context.Context, code *Code) error

	// List returns all codes, newest first.
	List(ctx context.Context) ([]Code, error)

	// Redeem consumes one use: a conditional increment that only succeeds
	// while current_uses is under max_uses, plus the redemption row, both
	// in the caller's transaction. Losing the race at the max_uses
	// boundary returns ErrCodeExhausted with nothing written.
	Redeem(ctx context.Context, redemption *Redemption) error
}
