package quota

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists per-period usage counters. Rows are keyed
// (principal, kind, periodStart); rollover is lazy, the first touch after a
// boundary opens a fresh row and old rows are left for reporting.
type Store interface {
	// Add atomically increments the open period's counter by amount,
	// but only if the result stays at or under limit. A limit below zero
	// means no ceiling. Returns the new total, or ErrQuotaExceeded with
	// the counter untouched; consumption is all-or-nothing.
	Add(ctx context.Context, principalID uuid.UUID, kind ResourceKind, periodStart time.Time, amount, limit int64) (int64, error)

	// Used returns the open period's counter. Zero when no row exists yet.
	Used(ctx context.Context, principalID uuid.UUID, kind ResourceKind, periodStart time.Time) (int64, error)
}
