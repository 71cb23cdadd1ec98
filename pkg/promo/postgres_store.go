package promo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidehq/aide/pkg/pg"
	"github.com/aidehq/aide/pkg/subscription"
)

// PostgresStore persists codes in promo_codes and their redemptions in
// promo_redemptions.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("promo: pgx pool cannot be nil")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) db(ctx context.Context) pg.Querier {
	return pg.QuerierFromContext(ctx, s.pool)
}

const codeColumns = `id, code, discount_type, discount_value, grant_months,
	max_uses, current_uses, valid_from, valid_until, applicable_tiers,
	is_active, created_at, updated_at`

func (s *PostgresStore) GetByCode(ctx context.Context, code string) (*Code, error) {
	row := s.db(ctx).QueryRow(ctx, `
		SELECT `+codeColumns+`
		FROM promo_codes WHERE code = $1`, code)

	record, err := scanCode(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *PostgresStore) Create(ctx context.Context, code *Code) error {
	_, err := s.db(ctx).Exec(ctx, `
		INSERT INTO promo_codes (`+codeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		code.ID, code.Code, string(code.DiscountType), code.DiscountValue,
		code.GrantMonths, code.MaxUses, code.CurrentUses, code.ValidFrom,
		code.ValidUntil, tierStrings(code.ApplicableTiers), code.IsActive,
		code.CreatedAt, code.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrCodeAlreadyExists
		}
		return err
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, code *Code) error {
	tag, err := s.db(ctx).Exec(ctx, `
		UPDATE promo_codes SET
			discount_type = $2,
			discount_value = $3,
			grant_months = $4,
			max_uses = $5,
			valid_from = $6,
			valid_until = $7,
			applicable_tiers = $8,
			is_active = $9,
			updated_at = $10
		WHERE code = $1`,
		code.Code, string(code.DiscountType), code.DiscountValue,
		code.GrantMonths, code.MaxUses, code.ValidFrom, code.ValidUntil,
		tierStrings(code.ApplicableTiers), code.IsActive, code.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Code, error) {
	rows, err := s.db(ctx).Query(ctx, `
		SELECT `+codeColumns+`
		FROM promo_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := make([]Code, 0)
	for rows.Next() {
		code, err := scanCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, *code)
	}
	return codes, rows.Err()
}

// Redeem's conditional increment is the serialization point the max_uses
// cap depends on: of two concurrent redemptions at the boundary, exactly
// one update fires.
func (s *PostgresStore) Redeem(ctx context.Context, redemption *Redemption) error {
	db := s.db(ctx)

	tag, err := db.Exec(ctx, `
		UPDATE promo_codes SET
			current_uses = current_uses + 1,
			updated_at = now()
		WHERE id = $1 AND (max_uses IS NULL OR current_uses < max_uses)`,
		redemption.CodeID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCodeExhausted
	}

	_, err = db.Exec(ctx, `
		INSERT INTO promo_redemptions (id, code_id, principal_id, tier, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		redemption.ID, redemption.CodeID, redemption.PrincipalID,
		string(redemption.Tier), redemption.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record redemption: %w", err)
	}
	return nil
}

func tierStrings(tiers []subscription.Tier) []string {
	out := make([]string, len(tiers))
	for i, t := range tiers {
		out[i] = string(t)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCode(row rowScanner) (*Code, error) {
	var code Code
	var discountType string
	var tiers []string

	if err := row.Scan(&code.ID, &code.Code, &discountType, &code.DiscountValue,
		&code.GrantMonths, &code.MaxUses, &code.CurrentUses, &code.ValidFrom,
		&code.ValidUntil, &tiers, &code.IsActive,
		&code.CreatedAt, &code.UpdatedAt); err != nil {
		return nil, err
	}

	code.DiscountType = DiscountType(discountType)
	code.ApplicableTiers = make([]subscription.Tier, len(tiers))
	for i, t := range tiers {
		code.ApplicableTiers[i] = subscription.Tier(t)
	}
	return &code, nil
}
