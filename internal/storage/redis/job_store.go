// Package redis implements the job metadata store on Redis so polled job
// state survives process restarts and is shared across replicas.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JakeFAU/sentiment-service/internal/sentiment"
	"github.com/JakeFAU/sentiment-service/internal/store"
)

const keyPrefix = "sentiment:job:"

// Config holds connection settings for the job store.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// JobStore persists job snapshots as JSON values with a TTL. Expired jobs
// read as not-found, which clients see as a plain 404.
type JobStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New creates a JobStore with its own client.
func New(cfg Config) *JobStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(client, cfg.TTL)
}

// NewWithClient creates a JobStore around an existing client. Tests use
// this to point the store at a scratch database.
func NewWithClient(client redis.UniversalClient, ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JobStore{client: client, ttl: ttl}
}

// Put stores the job snapshot, refreshing the TTL on every write.
func (s *JobStore) Put(ctx context.Context, job sentiment.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	if err := s.client.Set(ctx, jobKey(job.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set job %s: %w", job.ID, err)
	}
	return nil
}

// Get fetches a job snapshot by id.
func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (sentiment.Job, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sentiment.Job{}, store.ErrNotFound
		}
		return sentiment.Job{}, fmt.Errorf("redis get job %s: %w", id, err)
	}

	var job sentiment.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return sentiment.Job{}, fmt.Errorf("decode job %s: %w", id, err)
	}
	return job, nil
}

// Ping reports backend reachability.
func (s *JobStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *JobStore) Close() error {
	return s.client.Close()
}

func jobKey(id uuid.UUID) string {
	return keyPrefix + id.String()
}
