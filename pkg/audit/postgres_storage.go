package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage persists audit events in the audit_events table.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	if pool == nil {
		panic("audit: pgx pool cannot be nil")
	}
	return &PostgresStorage{pool: pool}
}

func (s *PostgresStorage) Store(ctx context.Context, event Event) error {
	var metadata []byte
	if event.Metadata != nil {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode audit metadata: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_events (
			id, actor_id, target_id, action, resource, resource_id,
			result, error, reason, request_id, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		event.ID, event.ActorID, nullable(event.TargetID), event.Action,
		nullable(event.Resource), nullable(event.ResourceID),
		string(event.Result), nullable(event.Error), nullable(event.Reason),
		nullable(event.RequestID), metadata, event.CreatedAt,
	)
	if err != nil {
		return errors.Join(ErrStorageNotAvailable, err)
	}
	return nil
}

func (s *PostgresStorage) Query(ctx context.Context, criteria Criteria) ([]Event, error) {
	query := `
		SELECT id, actor_id, COALESCE(target_id, ''), action,
		       COALESCE(resource, ''), COALESCE(resource_id, ''),
		       result, COALESCE(error, ''), COALESCE(reason, ''),
		       COALESCE(request_id, ''), metadata, created_at
		FROM audit_events WHERE 1=1`
	args := make([]any, 0, 8)

	appendCond := func(cond string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND %s = $%d", cond, len(args))
	}

	if criteria.ActorID != "" {
		appendCond("actor_id", criteria.ActorID)
	}
	if criteria.TargetID != "" {
		appendCond("target_id", criteria.TargetID)
	}
	if criteria.Action != "" {
		appendCond("action", criteria.Action)
	}
	if criteria.Resource != "" {
		appendCond("resource", criteria.Resource)
	}
	if !criteria.From.IsZero() {
		args = append(args, criteria.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !criteria.To.IsZero() {
		args = append(args, criteria.To)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	query += " ORDER BY created_at DESC"
	if criteria.Limit > 0 {
		args = append(args, criteria.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if criteria.Offset > 0 {
		args = append(args, criteria.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrStorageNotAvailable, err)
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var e Event
		var result string
		var metadata []byte
		if err := rows.Scan(
			&e.ID, &e.ActorID, &e.TargetID, &e.Action,
			&e.Resource, &e.ResourceID, &result, &e.Error,
			&e.Reason, &e.RequestID, &metadata, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Result = Result(result)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode audit metadata: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// nullable maps empty strings to NULL so optional columns stay queryable
// with IS NULL semantics.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
