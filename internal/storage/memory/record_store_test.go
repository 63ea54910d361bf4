package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/sentiment-service/internal/store"
)

func seedRecords(t *testing.T, s *RecordStore, n int) []store.SentimentRecord {
	t.Helper()
	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	out := make([]store.SentimentRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := store.SentimentRecord{
			ID:         uuid.New(),
			Text:       fmt.Sprintf("text %d", i),
			Sentiment:  "neutral",
			Confidence: 0.5,
			AnalyzedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if _, err := s.Create(context.Background(), rec); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		out = append(out, rec)
	}
	return out
}

func TestRecordStoreCreateRetrieve(t *testing.T) {
	t.Parallel()

	records := NewRecordStore()
	rec := store.SentimentRecord{
		ID:         uuid.New(),
		Text:       "the checkout flow is painless",
		Sentiment:  "positive",
		Confidence: 0.91,
		AnalyzedAt: time.Now().UTC(),
	}

	created, err := records.Create(context.Background(), rec)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID != rec.ID {
		t.Fatalf("expected id %s, got %s", rec.ID, created.ID)
	}

	got, err := records.Retrieve(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if got != rec {
		t.Fatalf("expected %+v, got %+v", rec, got)
	}
}

func TestRecordStoreRetrieveUnknown(t *testing.T) {
	t.Parallel()

	records := NewRecordStore()
	_, err := records.Retrieve(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordStoreRetrieveAllOrdering(t *testing.T) {
	t.Parallel()

	records := NewRecordStore()
	seeded := seedRecords(t, records, 5)

	all, err := records.RetrieveAll(context.Background(), 100, 0)
	if err != nil {
		t.Fatalf("RetrieveAll() error = %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 records, got %d", len(all))
	}
	// Newest analysis first.
	if all[0].ID != seeded[4].ID || all[4].ID != seeded[0].ID {
		t.Fatalf("expected newest-first ordering, got %v", all)
	}
}

func TestRecordStoreRetrieveAllPagination(t *testing.T) {
	t.Parallel()

	records := NewRecordStore()
	seeded := seedRecords(t, records, 5)

	page, err := records.RetrieveAll(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("RetrieveAll() error = %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 records, got %d", len(page))
	}
	if page[0].ID != seeded[3].ID || page[1].ID != seeded[2].ID {
		t.Fatalf("expected offset to skip the newest record, got %v", page)
	}

	empty, err := records.RetrieveAll(context.Background(), 10, 99)
	if err != nil {
		t.Fatalf("RetrieveAll() past end error = %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page past end, got %v", empty)
	}
}

func TestRecordStoreUpdate(t *testing.T) {
	t.Parallel()

	records := NewRecordStore()
	seeded := seedRecords(t, records, 1)

	updated := seeded[0]
	updated.Text = "actually it broke on the second day"
	updated.Sentiment = "negative"
	updated.Confidence = 0.88
	updated.AnalyzedAt = updated.AnalyzedAt.Add(time.Hour)

	got, err := records.Update(context.Background(), updated)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Sentiment != "negative" || got.Text != updated.Text {
		t.Fatalf("expected updated verdict, got %+v", got)
	}

	reread, err := records.Retrieve(context.Background(), seeded[0].ID)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if reread != updated {
		t.Fatalf("expected persisted update, got %+v", reread)
	}

	missing := updated
	missing.ID = uuid.New()
	if _, err := records.Update(context.Background(), missing); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestRecordStoreDelete(t *testing.T) {
	t.Parallel()

	records := NewRecordStore()
	seeded := seedRecords(t, records, 1)

	if err := records.Delete(context.Background(), seeded[0].ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := records.Delete(context.Background(), seeded[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := records.Retrieve(context.Background(), seeded[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected record to be gone, got %v", err)
	}
}
