// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JakeFAU/sentiment-service/internal/store"
)

// AuditStore implements store.AuditRepository on the job_events table.
type AuditStore struct {
	pool  pgxPool
	table string
}

// NewAuditStore creates a Postgres-backed AuditStore with its own pool,
// reusing the record store connection settings.
func NewAuditStore(ctx context.Context, cfg RecordStoreConfig, table string) (*AuditStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	audit, err := NewAuditStoreWithPool(pool, table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return audit, nil
}

// NewAuditStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewAuditStoreWithPool(pool pgxPool, table string) (*AuditStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "job_events"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &AuditStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *AuditStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// RecordEvents appends a batch of events in observation order.
func (s *AuditStore) RecordEvents(ctx context.Context, events []store.JobEvent) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("audit store is not configured")
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (job_id, stage, detail, created_at) VALUES ($1, $2, $3, $4)`, s.table)
	for _, evt := range events {
		if _, err := s.pool.Exec(ctx, query, evt.JobID, evt.Stage, evt.Detail, evt.CreatedAt); err != nil {
			return fmt.Errorf("insert job event: %w", err)
		}
	}
	return nil
}

// ListJobEvents returns events for one job oldest-first.
func (s *AuditStore) ListJobEvents(ctx context.Context, jobID uuid.UUID, limit, offset int) ([]store.JobEvent, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("audit store is not configured")
	}
	query := fmt.Sprintf(`
SELECT job_id, stage, detail, created_at
FROM %s
WHERE job_id = $1
ORDER BY created_at ASC
LIMIT $2 OFFSET $3`, s.table)

	rows, err := s.pool.Query(ctx, query, jobID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select job events: %w", err)
	}
	defer rows.Close()

	events := make([]store.JobEvent, 0, limit)
	for rows.Next() {
		var evt store.JobEvent
		if err := rows.Scan(&evt.JobID, &evt.Stage, &evt.Detail, &evt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan job event row: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job event rows: %w", err)
	}
	return events, nil
}
