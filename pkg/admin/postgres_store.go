package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidehq/aide/pkg/pg"
)

// PostgresStore persists admin records in the admin_records table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("admin: pgx pool cannot be nil")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, principalID uuid.UUID) (*Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT principal_id, email, role, permissions, created_at, updated_at
		FROM admin_records WHERE principal_id = $1`, principalID)

	record, err := scanRecord(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *PostgresStore) Save(ctx context.Context, record *Record) error {
	permissions, err := json.Marshal(record.Permissions)
	if err != nil {
		return fmt.Errorf("failed to encode permissions: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO admin_records (principal_id, email, role, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (principal_id) DO UPDATE SET
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			permissions = EXCLUDED.permissions,
			updated_at = EXCLUDED.updated_at`,
		record.PrincipalID, record.Email, string(record.Role), permissions,
		record.CreatedAt, record.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, principalID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM admin_records WHERE principal_id = $1`, principalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT principal_id, email, role, permissions, created_at, updated_at
		FROM admin_records ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var record Record
	var role string
	var permissions []byte

	if err := row.Scan(&record.PrincipalID, &record.Email, &role, &permissions,
		&record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}

	record.Role = Role(role)
	if len(permissions) > 0 {
		if err := json.Unmarshal(permissions, &record.Permissions); err != nil {
			return nil, fmt.Errorf("failed to decode permissions: %w", err)
		}
	}
	if record.Permissions == nil {
		record.Permissions = make(map[Permission]bool)
	}
	return &record, nil
}
