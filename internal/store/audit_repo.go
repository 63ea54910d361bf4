// Package store declares the audit trail persisted per analysis job.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobEvent models one row of the job_events table.
type JobEvent struct {
	// JobID is the async job the event belongs to.
	JobID uuid.UUID
	// Stage is the lifecycle marker (JOB_SUBMITTED, JOB_START, ...).
	Stage string
	// Detail optionally carries the provider label or failure reason.
	Detail *string
	// CreatedAt captures when the event was observed.
	CreatedAt time.Time
}

// AuditRepository persists and serves the per-job event trail.
type AuditRepository interface {
	// RecordEvents appends a batch of events in observation order.
	RecordEvents(ctx context.Context, events []JobEvent) error
	// ListJobEvents returns events for one job oldest-first with limit/offset.
	ListJobEvents(ctx context.Context, jobID uuid.UUID, limit, offset int) ([]JobEvent, error)
}
