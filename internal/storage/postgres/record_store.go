// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/sentiment-service/internal/store"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RecordStoreConfig controls the Postgres connection pool used for
// sentiment records.
type RecordStoreConfig struct {
	DSN             string
	RequestsTable   string
	SentimentsTable string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// RecordStore implements store.RecordRepository across the two-table
// schema: one row in requests per submission, one row in sentiments per
// verdict, joined on sentiments.request_id.
type RecordStore struct {
	pool       pgxPool
	requests   string
	sentiments string
}

// NewRecordStore creates a Postgres-backed RecordStore using the provided config.
func NewRecordStore(ctx context.Context, cfg RecordStoreConfig) (*RecordStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	requests, sentiments, err := tableNames(cfg.RequestsTable, cfg.SentimentsTable)
	if err != nil {
		return nil, err
	}
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &RecordStore{pool: pool, requests: requests, sentiments: sentiments}, nil
}

func newPool(ctx context.Context, cfg RecordStoreConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// NewRecordStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewRecordStoreWithPool(pool pgxPool, requestsTable, sentimentsTable string) (*RecordStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	requests, sentiments, err := tableNames(requestsTable, sentimentsTable)
	if err != nil {
		return nil, err
	}
	return &RecordStore{pool: pool, requests: requests, sentiments: sentiments}, nil
}

func tableNames(requests, sentiments string) (string, string, error) {
	if requests == "" {
		requests = "requests"
	}
	if sentiments == "" {
		sentiments = "sentiments"
	}
	for _, table := range []string{requests, sentiments} {
		if !validTableName.MatchString(table) {
			return "", "", fmt.Errorf("invalid table name %q", table)
		}
	}
	return requests, sentiments, nil
}

// Close releases the underlying pool resources.
func (s *RecordStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping reports backend reachability for health checks.
func (s *RecordStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("record store is not configured")
	}
	return s.pool.Ping(ctx)
}

// Create inserts the request and sentiment rows in one transaction and
// returns the joined record.
func (s *RecordStore) Create(ctx context.Context, rec store.SentimentRecord) (store.SentimentRecord, error) {
	if rec.ID == uuid.Nil {
		return store.SentimentRecord{}, fmt.Errorf("record id is required")
	}
	requestID, err := uuid.NewV7()
	if err != nil {
		return store.SentimentRecord{}, fmt.Errorf("generate request id: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return store.SentimentRecord{}, fmt.Errorf("begin create: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insertRequest := fmt.Sprintf(
		`INSERT INTO %s (id, input_text, created_at, user_id) VALUES ($1, $2, $3, $4)`, s.requests)
	if _, err := tx.Exec(ctx, insertRequest, requestID, rec.Text, rec.AnalyzedAt, nil); err != nil {
		return store.SentimentRecord{}, classifyError("insert request", err)
	}

	insertSentiment := fmt.Sprintf(
		`INSERT INTO %s (id, request_id, sentiment, confidence, analyzed_at) VALUES ($1, $2, $3, $4, $5)`,
		s.sentiments)
	if _, err := tx.Exec(ctx, insertSentiment, rec.ID, requestID, rec.Sentiment, rec.Confidence, rec.AnalyzedAt); err != nil {
		return store.SentimentRecord{}, classifyError("insert sentiment", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return store.SentimentRecord{}, fmt.Errorf("commit create: %w", err)
	}
	return s.Retrieve(ctx, rec.ID)
}

// Retrieve loads the joined record by result id.
func (s *RecordStore) Retrieve(ctx context.Context, id uuid.UUID) (store.SentimentRecord, error) {
	query := fmt.Sprintf(`
SELECT s.id, r.input_text, s.sentiment, s.confidence, s.analyzed_at
FROM %s s
JOIN %s r ON s.request_id = r.id
WHERE s.id = $1`, s.sentiments, s.requests)

	var rec store.SentimentRecord
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.Text,
		&rec.Sentiment,
		&rec.Confidence,
		&rec.AnalyzedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.SentimentRecord{}, store.ErrNotFound
		}
		return store.SentimentRecord{}, fmt.Errorf("select record: %w", err)
	}
	return rec, nil
}

// RetrieveAll lists joined records newest-analysis-first.
func (s *RecordStore) RetrieveAll(ctx context.Context, limit, offset int) ([]store.SentimentRecord, error) {
	query := fmt.Sprintf(`
SELECT s.id, r.input_text, s.sentiment, s.confidence, s.analyzed_at
FROM %s s
JOIN %s r ON s.request_id = r.id
ORDER BY s.analyzed_at DESC
LIMIT $1 OFFSET $2`, s.sentiments, s.requests)

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()

	records := make([]store.SentimentRecord, 0, limit)
	for rows.Next() {
		var rec store.SentimentRecord
		if err := rows.Scan(&rec.ID, &rec.Text, &rec.Sentiment, &rec.Confidence, &rec.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record rows: %w", err)
	}
	return records, nil
}

// Update rewrites the verdict columns and the originating request text in
// one transaction, then returns the joined record.
func (s *RecordStore) Update(ctx context.Context, rec store.SentimentRecord) (store.SentimentRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return store.SentimentRecord{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	requestID, err := s.requestIDForUpdate(ctx, tx, rec.ID)
	if err != nil {
		return store.SentimentRecord{}, err
	}

	updateSentiment := fmt.Sprintf(
		`UPDATE %s SET sentiment = $1, confidence = $2, analyzed_at = $3 WHERE id = $4`, s.sentiments)
	if _, err := tx.Exec(ctx, updateSentiment, rec.Sentiment, rec.Confidence, rec.AnalyzedAt, rec.ID); err != nil {
		return store.SentimentRecord{}, classifyError("update sentiment", err)
	}

	updateRequest := fmt.Sprintf(`UPDATE %s SET input_text = $1 WHERE id = $2`, s.requests)
	if _, err := tx.Exec(ctx, updateRequest, rec.Text, requestID); err != nil {
		return store.SentimentRecord{}, classifyError("update request", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return store.SentimentRecord{}, fmt.Errorf("commit update: %w", err)
	}
	return s.Retrieve(ctx, rec.ID)
}

// Delete removes the sentiment row first, then its request row.
func (s *RecordStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	requestID, err := s.requestIDForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}

	deleteSentiment := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.sentiments)
	if _, err := tx.Exec(ctx, deleteSentiment, id); err != nil {
		return classifyError("delete sentiment", err)
	}

	deleteRequest := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.requests)
	if _, err := tx.Exec(ctx, deleteRequest, requestID); err != nil {
		return classifyError("delete request", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// requestIDForUpdate resolves the owning request row inside the caller's
// transaction, locking it until commit.
func (s *RecordStore) requestIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (uuid.UUID, error) {
	query := fmt.Sprintf(`SELECT request_id FROM %s WHERE id = $1 FOR UPDATE`, s.sentiments)
	var requestID uuid.UUID
	if err := tx.QueryRow(ctx, query, id).Scan(&requestID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, store.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("select request id: %w", err)
	}
	return requestID, nil
}

// classifyError maps driver errors onto the repository error taxonomy.
// A foreign key violation means the referenced row vanished mid-flight,
// which callers treat the same as not-found.
func classifyError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, store.ErrNotFound)
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%s: duplicate key %q: %w", op, pgErr.ConstraintName, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
