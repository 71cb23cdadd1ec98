package quota

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidehq/aide/pkg/pg"
)

// PostgresStore persists usage counters in the usage_records table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("quota: pgx pool cannot be nil")
	}
	return &PostgresStore{pool: pool}
}

// Add performs the increment-with-ceiling in a single statement. The WHERE
// clause on the upsert makes concurrent consumers race for the remaining
// allowance: when the guard fails no row comes back and the counter is
// untouched.
func (s *PostgresStore) Add(ctx context.Context, principalID uuid.UUID, kind ResourceKind, periodStart time.Time, amount, limit int64) (int64, error) {
	// A fresh row starts at amount, so a first consumption past the
	// ceiling is rejected without touching the table.
	if limit >= 0 && amount > limit {
		return 0, ErrQuotaExceeded
	}

	var used int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO usage_records (principal_id, kind, period_start, used, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (principal_id, kind, period_start) DO UPDATE SET
			used = usage_records.used + $4,
			updated_at = now()
		WHERE $5 < 0 OR usage_records.used + $4 <= $5
		RETURNING used`,
		principalID, string(kind), periodStart.UTC(), amount, limit,
	).Scan(&used)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return 0, ErrQuotaExceeded
		}
		return 0, err
	}
	return used, nil
}

func (s *PostgresStore) Used(ctx context.Context, principalID uuid.UUID, kind ResourceKind, periodStart time.Time) (int64, error) {
	var used int64
	err := s.pool.QueryRow(ctx, `
		SELECT used FROM usage_records
		WHERE principal_id = $1 AND kind = $2 AND period_start = $3`,
		principalID, string(kind), periodStart.UTC(),
	).Scan(&used)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return 0, nil
		}
		return 0, err
	}
	return used, nil
}
