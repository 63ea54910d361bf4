package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/sentiment-service/internal/sentiment"
	"github.com/JakeFAU/sentiment-service/internal/store"
)

// setupTestStore connects to a local Redis or skips when none is running.
func setupTestStore(t *testing.T) *JobStore {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr, DB: 9})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}

	t.Cleanup(func() { _ = client.Close() })
	return NewWithClient(client, time.Minute)
}

func TestJobStoreRoundTrip(t *testing.T) {
	jobs := setupTestStore(t)
	ctx := context.Background()

	resultID := uuid.New()
	job := sentiment.Job{
		ID:        uuid.New(),
		Status:    sentiment.JobStatusCompleted,
		Text:      "redis keeps this text through the round trip",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
		ResultID:  &resultID,
	}
	require.NoError(t, jobs.Put(ctx, job))

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, job.ID, got.ID)
	require.Equal(t, sentiment.JobStatusCompleted, got.Status)
	require.Equal(t, job.Text, got.Text)
	require.NotNil(t, got.ResultID)
	require.Equal(t, resultID, *got.ResultID)
	require.True(t, job.CreatedAt.Equal(got.CreatedAt))
}

func TestJobStoreGetUnknown(t *testing.T) {
	jobs := setupTestStore(t)

	_, err := jobs.Get(context.Background(), uuid.New())
	require.Error(t, err)
	require.True(t, errors.Is(err, store.ErrNotFound))
}

func TestJobStorePutRefreshesSnapshot(t *testing.T) {
	jobs := setupTestStore(t)
	ctx := context.Background()

	job := sentiment.Job{ID: uuid.New(), Status: sentiment.JobStatusPending, Text: "queued"}
	require.NoError(t, jobs.Put(ctx, job))

	job.Status = sentiment.JobStatusFailed
	job.ErrorMessage = "provider returned status 500"
	require.NoError(t, jobs.Put(ctx, job))

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, sentiment.JobStatusFailed, got.Status)
	require.Equal(t, "provider returned status 500", got.ErrorMessage)
}
