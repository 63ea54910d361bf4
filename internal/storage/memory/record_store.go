package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/JakeFAU/sentiment-service/internal/store"
)

// RecordStore is an in-memory RecordRepository used when no database DSN
// is configured. It mirrors the relational semantics closely enough for
// development: same not-found behavior, same newest-first listing.
type RecordStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]store.SentimentRecord
}

// NewRecordStore constructs a RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[uuid.UUID]store.SentimentRecord),
	}
}

// Create stores a new record keyed by its result id.
func (s *RecordStore) Create(_ context.Context, rec store.SentimentRecord) (store.SentimentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return rec, nil
}

// Retrieve loads a record by id.
func (s *RecordStore) Retrieve(_ context.Context, id uuid.UUID) (store.SentimentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return store.SentimentRecord{}, store.ErrNotFound
	}
	return rec, nil
}

// RetrieveAll lists records newest-analysis-first with limit/offset.
func (s *RecordStore) RetrieveAll(_ context.Context, limit, offset int) ([]store.SentimentRecord, error) {
	s.mu.RLock()
	all := make([]store.SentimentRecord, 0, len(s.records))
	for _, rec := range s.records {
		all = append(all, rec)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].AnalyzedAt.Equal(all[j].AnalyzedAt) {
			return all[i].ID.String() > all[j].ID.String()
		}
		return all[i].AnalyzedAt.After(all[j].AnalyzedAt)
	})

	if offset >= len(all) {
		return []store.SentimentRecord{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]store.SentimentRecord, end-offset)
	copy(out, all[offset:end])
	return out, nil
}

// Update replaces an existing record in place.
func (s *RecordStore) Update(_ context.Context, rec store.SentimentRecord) (store.SentimentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		return store.SentimentRecord{}, store.ErrNotFound
	}
	s.records[rec.ID] = rec
	return rec, nil
}

// Delete removes a record by id.
func (s *RecordStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// Ping always succeeds; there is no backend to reach.
func (s *RecordStore) Ping(_ context.Context) error {
	return nil
}
