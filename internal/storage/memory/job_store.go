package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/JakeFAU/sentiment-service/internal/sentiment"
	"github.com/JakeFAU/sentiment-service/internal/store"
)

// JobStore provides an in-memory job metadata store. Jobs live for the
// process lifetime; a restart forgets every tracked job.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]sentiment.Job
}

// NewJobStore constructs a JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[uuid.UUID]sentiment.Job),
	}
}

// Put stores the job snapshot, replacing any previous state. Terminal
// states are never overwritten so a late write cannot regress a job.
func (s *JobStore) Put(_ context.Context, job sentiment.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.jobs[job.ID]; ok && existing.Status.Terminal() && !job.Status.Terminal() {
		return fmt.Errorf("job %s already %s", job.ID, existing.Status)
	}
	s.jobs[job.ID] = job
	return nil
}

// Get fetches a job snapshot by id.
func (s *JobStore) Get(_ context.Context, id uuid.UUID) (sentiment.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return sentiment.Job{}, store.ErrNotFound
	}
	return job, nil
}
