package sentiment

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of an analysis job.
type JobStatus string

// Job status values persisted in the job store. Transitions move forward
// only: pending -> running -> completed or failed.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is the metadata persisted for each submitted analysis request.
// ResultID is set only on completion; ErrorMessage only on failure.
type Job struct {
	ID           uuid.UUID  `json:"id"`
	Status       JobStatus  `json:"status"`
	Text         string     `json:"text"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ResultID     *uuid.UUID `json:"result_id,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Analysis is the outcome of a single provider call. Raw holds the
// provider response body verbatim for archival.
type Analysis struct {
	Label      string
	Confidence float64
	Provider   string
	Raw        []byte
}

// QueueItem wraps a job ready to run.
type QueueItem struct {
	JobID     uuid.UUID
	Text      string
	Submitted int64
}
