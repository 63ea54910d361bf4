package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/sentiment-service/internal/sentiment"
	"github.com/JakeFAU/sentiment-service/internal/store"
)

func TestJobStoreLifecycle(t *testing.T) {
	t.Parallel()

	jobs := NewJobStore()
	ctx := context.Background()
	now := time.Now().UTC()

	job := sentiment.Job{
		ID:        uuid.New(),
		Status:    sentiment.JobStatusPending,
		Text:      "great service",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := jobs.Put(ctx, job); err != nil {
		t.Fatalf("Put() pending error = %v", err)
	}

	job.Status = sentiment.JobStatusRunning
	job.UpdatedAt = now.Add(time.Second)
	if err := jobs.Put(ctx, job); err != nil {
		t.Fatalf("Put() running error = %v", err)
	}

	resultID := uuid.New()
	job.Status = sentiment.JobStatusCompleted
	job.ResultID = &resultID
	job.UpdatedAt = now.Add(2 * time.Second)
	if err := jobs.Put(ctx, job); err != nil {
		t.Fatalf("Put() completed error = %v", err)
	}

	final, err := jobs.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if final.Status != sentiment.JobStatusCompleted {
		t.Fatalf("expected completed status, got %s", final.Status)
	}
	if final.ResultID == nil || *final.ResultID != resultID {
		t.Fatalf("expected result id %s, got %+v", resultID, final.ResultID)
	}
	if final.ErrorMessage != "" {
		t.Fatalf("expected empty error message on success, got %q", final.ErrorMessage)
	}
}

func TestJobStoreGetUnknown(t *testing.T) {
	t.Parallel()

	jobs := NewJobStore()
	_, err := jobs.Get(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobStoreRejectsTerminalRegression(t *testing.T) {
	t.Parallel()

	jobs := NewJobStore()
	ctx := context.Background()

	job := sentiment.Job{ID: uuid.New(), Status: sentiment.JobStatusFailed, ErrorMessage: "provider exploded"}
	if err := jobs.Put(ctx, job); err != nil {
		t.Fatalf("Put() failed error = %v", err)
	}

	job.Status = sentiment.JobStatusRunning
	job.ErrorMessage = ""
	if err := jobs.Put(ctx, job); err == nil {
		t.Fatal("expected regression from failed to running to be rejected")
	}

	kept, err := jobs.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if kept.Status != sentiment.JobStatusFailed || kept.ErrorMessage != "provider exploded" {
		t.Fatalf("expected terminal snapshot to survive, got %+v", kept)
	}
}
