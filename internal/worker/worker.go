// Package worker implements the analysis job execution loop.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/JakeFAU/sentiment-service/internal/progress"
	"github.com/JakeFAU/sentiment-service/internal/sentiment"
	"github.com/JakeFAU/sentiment-service/internal/store"
	"github.com/JakeFAU/sentiment-service/internal/telemetry"
)

// Config controls Worker behavior.
type Config struct {
	ArchivePrefix      string
	ArchiveContentType string
	Topic              string
	PendingDelay       time.Duration
	ProcessingDelay    time.Duration
}

// Worker consumes queue items and executes the analysis pipeline.
type Worker struct {
	queue     sentiment.Queue
	jobs      sentiment.JobStore
	records   store.RecordRepository
	archive   sentiment.BlobStore
	publisher sentiment.Publisher
	analyzer  sentiment.Analyzer
	limiter   sentiment.Limiter
	hasher    sentiment.Hasher
	clock     sentiment.Clock
	idGen     sentiment.IDGenerator
	emitter   progress.Emitter
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Worker.
func New(
	queue sentiment.Queue,
	jobs sentiment.JobStore,
	records store.RecordRepository,
	archive sentiment.BlobStore,
	publisher sentiment.Publisher,
	analyzer sentiment.Analyzer,
	limiter sentiment.Limiter,
	hasher sentiment.Hasher,
	clock sentiment.Clock,
	idGen sentiment.IDGenerator,
	emitter progress.Emitter,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if cfg.ArchiveContentType == "" {
		cfg.ArchiveContentType = "application/json"
	}
	return &Worker{
		queue:     queue,
		jobs:      jobs,
		records:   records,
		archive:   archive,
		publisher: publisher,
		analyzer:  analyzer,
		limiter:   limiter,
		hasher:    hasher,
		clock:     clock,
		idGen:     idGen,
		emitter:   emitter,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run blocks, consuming queue items until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.logger.Debug("dequeued job", zap.String("job_id", item.JobID.String()))
		w.processJob(ctx, item)
	}
}

func (w *Worker) processJob(ctx context.Context, item sentiment.QueueItem) {
	telemetry.IncActiveWorkers()
	defer telemetry.DecActiveWorkers()

	ctx, span := telemetry.StartSpan(ctx, "worker.process_job",
		attribute.String("job_id", item.JobID.String()))
	defer span.End()

	started := time.Now()

	job, err := w.jobs.Get(ctx, item.JobID)
	if err != nil {
		w.logger.Error("job lookup failed", zap.String("job_id", item.JobID.String()), zap.Error(err))
		return
	}
	if job.Status.Terminal() {
		w.logger.Warn("job already terminal", zap.String("job_id", job.ID.String()), zap.String("status", string(job.Status)))
		return
	}

	// Submission window: pollers observe status pending.
	if !w.pause(ctx, w.cfg.PendingDelay) {
		return
	}

	job.Status = sentiment.JobStatusRunning
	job.UpdatedAt = w.clock.Now()
	if err := w.jobs.Put(ctx, job); err != nil {
		w.logger.Error("running status update failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}
	w.emit(progress.Event{
		JobID: progress.UUIDToBytes(job.ID),
		TS:    job.UpdatedAt,
		Stage: progress.StageJobStart,
	})

	// Processing window: pollers observe status running.
	if !w.pause(ctx, w.cfg.ProcessingDelay) {
		return
	}

	analysis, err := w.analyze(ctx, job)
	if err != nil {
		w.fail(ctx, job, started, err)
		return
	}

	w.archiveRaw(ctx, job, analysis)

	rec, err := w.persistRecord(ctx, job, analysis)
	if err != nil {
		w.fail(ctx, job, started, err)
		return
	}

	job.Status = sentiment.JobStatusCompleted
	job.ResultID = &rec.ID
	job.ErrorMessage = ""
	job.UpdatedAt = w.clock.Now()
	if err := w.jobs.Put(ctx, job); err != nil {
		w.logger.Error("completed status update failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}
	telemetry.ObserveJob(string(sentiment.JobStatusCompleted))

	w.publishResult(ctx, job, rec, analysis)

	w.emit(progress.Event{
		JobID:      progress.UUIDToBytes(job.ID),
		TS:         job.UpdatedAt,
		Stage:      progress.StageJobDone,
		Provider:   analysis.Provider,
		Label:      analysis.Label,
		Confidence: analysis.Confidence,
		Dur:        time.Since(started),
	})
	w.logger.Info("job completed",
		zap.String("job_id", job.ID.String()),
		zap.String("result_id", rec.ID.String()),
		zap.String("sentiment", analysis.Label),
		zap.Float64("confidence", analysis.Confidence),
	)
}

// analyze waits on the provider limiter and runs the provider call. The
// provider's error is returned as-is so failed jobs store it verbatim.
func (w *Worker) analyze(ctx context.Context, job sentiment.Job) (sentiment.Analysis, error) {
	provider := w.analyzer.Name()
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx, provider); err != nil {
			return sentiment.Analysis{}, err
		}
	}

	begin := time.Now()
	analysis, err := w.analyzer.Analyze(ctx, job.Text)
	if err != nil {
		return sentiment.Analysis{}, err
	}
	if analysis.Provider == "" {
		analysis.Provider = provider
	}
	w.emit(progress.Event{
		JobID:      progress.UUIDToBytes(job.ID),
		TS:         w.clock.Now(),
		Stage:      progress.StageProviderDone,
		Provider:   analysis.Provider,
		Label:      analysis.Label,
		Confidence: analysis.Confidence,
		Dur:        time.Since(begin),
	})
	return analysis, nil
}

// archiveRaw stores the provider response body for later inspection. Archive
// problems are logged and counted, never fatal to the job.
func (w *Worker) archiveRaw(ctx context.Context, job sentiment.Job, analysis sentiment.Analysis) {
	if w.archive == nil || len(analysis.Raw) == 0 {
		return
	}
	hash, err := w.hasher.Hash(analysis.Raw)
	if err != nil {
		telemetry.ObserveArchiveFailure()
		w.logger.Warn("hash raw response failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}
	path := w.buildArchivePath(job.ID.String(), hash)
	uri, err := w.archive.PutObject(ctx, path, w.cfg.ArchiveContentType, bytes.NewReader(analysis.Raw))
	if err != nil {
		telemetry.ObserveArchiveFailure()
		w.logger.Warn("archive raw response failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}
	w.logger.Debug("raw response archived", zap.String("job_id", job.ID.String()), zap.String("uri", uri))
}

func (w *Worker) buildArchivePath(jobID, hash string) string {
	prefix := strings.Trim(w.cfg.ArchivePrefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s.json", jobID, hash)
	}
	return fmt.Sprintf("%s/%s/%s.json", prefix, jobID, hash)
}

func (w *Worker) persistRecord(ctx context.Context, job sentiment.Job, analysis sentiment.Analysis) (store.SentimentRecord, error) {
	id, err := w.idGen.NewRawID()
	if err != nil {
		return store.SentimentRecord{}, fmt.Errorf("generate record id: %w", err)
	}
	rec := store.SentimentRecord{
		ID:         id,
		Text:       job.Text,
		Sentiment:  analysis.Label,
		Confidence: analysis.Confidence,
		AnalyzedAt: w.clock.Now(),
	}
	created, err := w.records.Create(ctx, rec)
	if err != nil {
		return store.SentimentRecord{}, err
	}
	return created, nil
}

func (w *Worker) publishResult(ctx context.Context, job sentiment.Job, rec store.SentimentRecord, analysis sentiment.Analysis) {
	if w.cfg.Topic == "" || w.publisher == nil {
		return
	}
	payload := map[string]any{
		"job_id":     job.ID.String(),
		"result_id":  rec.ID.String(),
		"sentiment":  analysis.Label,
		"confidence": analysis.Confidence,
		"timestamp":  w.clock.Now().Format(time.RFC3339),
	}
	if _, err := w.publisher.Publish(ctx, w.cfg.Topic, payload); err != nil {
		w.logger.Warn("publish completion failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}
	w.logger.Info("completion published",
		zap.String("job_id", job.ID.String()),
		zap.String("result_id", rec.ID.String()),
		zap.String("topic", w.cfg.Topic),
	)
}

// fail moves the job to its failed terminal state, storing the cause verbatim.
func (w *Worker) fail(ctx context.Context, job sentiment.Job, started time.Time, cause error) {
	job.Status = sentiment.JobStatusFailed
	job.ErrorMessage = cause.Error()
	job.ResultID = nil
	job.UpdatedAt = w.clock.Now()
	if err := w.jobs.Put(ctx, job); err != nil {
		w.logger.Error("failed status update failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
	telemetry.ObserveJob(string(sentiment.JobStatusFailed))
	w.emit(progress.Event{
		JobID: progress.UUIDToBytes(job.ID),
		TS:    job.UpdatedAt,
		Stage: progress.StageJobError,
		Dur:   time.Since(started),
		Note:  cause.Error(),
	})
	w.logger.Error("job failed", zap.String("job_id", job.ID.String()), zap.Error(cause))
}

func (w *Worker) emit(evt progress.Event) {
	if w.emitter == nil {
		return
	}
	w.emitter.Emit(evt)
}

// pause sleeps for d unless the context ends first. It reports whether the
// full delay elapsed.
func (w *Worker) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
