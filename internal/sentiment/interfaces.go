package sentiment

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// JobStore persists async job metadata. Get returns an error satisfying
// errors.Is(err, store.ErrNotFound) for unknown ids.
type JobStore interface {
	Put(ctx context.Context, job Job) error
	Get(ctx context.Context, id uuid.UUID) (Job, error)
}

// Analyzer scores a piece of text against a sentiment provider.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (Analysis, error)
	Name() string
}

// Queue provides enqueue/dequeue semantics for analysis jobs.
type Queue interface {
	Enqueue(ctx context.Context, item QueueItem) error
	Dequeue(ctx context.Context) (QueueItem, error)
}

// Limiter paces calls to an upstream provider.
type Limiter interface {
	Wait(ctx context.Context, provider string) error
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests for archive paths and integrity checks.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record and job IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
	NewRawID() (uuid.UUID, error)
}
