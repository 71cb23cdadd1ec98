package subscription

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidehq/aide/pkg/pg"
)

// PostgresStore persists subscriptions in the subscriptions table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("subscription: pgx pool cannot be nil")
	}
	return &PostgresStore{pool: pool}
}

// db routes statements through the transaction carried by ctx, when one is
// open. Promo redemption grants join the redemption's transaction this way.
func (s *PostgresStore) db(ctx context.Context) pg.Querier {
	return pg.QuerierFromContext(ctx, s.pool)
}

const subscriptionColumns = `principal_id, tier, status, current_period_start,
	current_period_end, cancel_at_period_end, is_complimentary,
	provider_sub_id, last_event_seq, created_at, updated_at`

func (s *PostgresStore) Get(ctx context.Context, principalID uuid.UUID) (*Subscription, error) {
	row := s.db(ctx).QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions WHERE principal_id = $1`, principalID)

	sub, err := scanSubscription(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *PostgresStore) Save(ctx context.Context, sub *Subscription) error {
	_, err := s.db(ctx).Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (principal_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			is_complimentary = EXCLUDED.is_complimentary,
			provider_sub_id = EXCLUDED.provider_sub_id,
			last_event_seq = EXCLUDED.last_event_seq,
			updated_at = EXCLUDED.updated_at`,
		sub.PrincipalID, string(sub.Tier), string(sub.Status),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd,
		sub.IsComplimentary, sub.ProviderSubID, sub.LastEventSeq,
		sub.CreatedAt, sub.UpdatedAt,
	)
	return err
}

// SaveSequenced is the write path for billing events. The sequence guard in
// the upsert makes concurrent webhook delivery a single-winner race, the
// loser gets ErrStaleEvent.
func (s *PostgresStore) SaveSequenced(ctx context.Context, sub *Subscription, expectedSeq int64) error {
	tag, err := s.db(ctx).Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (principal_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			is_complimentary = EXCLUDED.is_complimentary,
			provider_sub_id = EXCLUDED.provider_sub_id,
			last_event_seq = EXCLUDED.last_event_seq,
			updated_at = EXCLUDED.updated_at
		WHERE subscriptions.last_event_seq = $12`,
		sub.PrincipalID, string(sub.Tier), string(sub.Status),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd,
		sub.IsComplimentary, sub.ProviderSubID, sub.LastEventSeq,
		sub.CreatedAt, sub.UpdatedAt, expectedSeq,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleEvent
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Subscription, error) {
	rows, err := s.db(ctx).Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*Subscription, error) {
	var sub Subscription
	var tier, status string

	if err := row.Scan(&sub.PrincipalID, &tier, &status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CancelAtPeriodEnd,
		&sub.IsComplimentary, &sub.ProviderSubID, &sub.LastEventSeq,
		&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}

	sub.Tier = Tier(tier)
	sub.Status = Status(status)
	return &sub, nil
}
