// Package store declares models and interfaces for persisted sentiment records.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// SentimentRecord is the joined view of one analyzed request: the submitted
// text together with the provider verdict.
type SentimentRecord struct {
	// ID is the public identifier of the result row.
	ID uuid.UUID
	// Text is the input exactly as submitted.
	Text string
	// Sentiment is the normalized provider label (e.g. positive, neutral).
	Sentiment string
	// Confidence is the provider score in [0, 1].
	Confidence float64
	// AnalyzedAt captures when the verdict was produced.
	AnalyzedAt time.Time
}

// RecordRepository persists analyzed sentiment records across the two-table
// schema (requests + sentiments). Lookups by unknown id return ErrNotFound.
type RecordRepository interface {
	// Create stores a new request/result pair and returns the joined row.
	Create(ctx context.Context, rec SentimentRecord) (SentimentRecord, error)
	// Retrieve loads a single joined record by result id.
	Retrieve(ctx context.Context, id uuid.UUID) (SentimentRecord, error)
	// RetrieveAll lists records newest-analysis-first with limit/offset.
	RetrieveAll(ctx context.Context, limit, offset int) ([]SentimentRecord, error)
	// Update replaces the text and verdict of an existing record in place.
	Update(ctx context.Context, rec SentimentRecord) (SentimentRecord, error)
	// Delete removes the result row and its originating request.
	Delete(ctx context.Context, id uuid.UUID) error
	// Ping reports backend reachability for health checks.
	Ping(ctx context.Context) error
}
