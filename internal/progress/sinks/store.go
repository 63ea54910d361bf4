package sinks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/sentiment-service/internal/progress"
	"github.com/JakeFAU/sentiment-service/internal/store"
)

// StoreSink persists job lifecycle events via a store.AuditRepository. It maps
// the whole batch into a single repository call to reduce write amplification.
type StoreSink struct {
	repo   store.AuditRepository
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink for the provided repository.
func NewStoreSink(repo store.AuditRepository, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{repo: repo, logger: logger}
}

// Consume converts the batch into audit rows and forwards them to the
// repository. It respects ctx deadlines and returns repository errors verbatim.
func (s *StoreSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.repo == nil {
		return nil
	}
	rows := make([]store.JobEvent, 0, len(batch))
	for _, evt := range batch {
		rows = append(rows, store.JobEvent{
			JobID:     evt.JobUUID(),
			Stage:     string(evt.Stage),
			Detail:    eventDetail(evt),
			CreatedAt: evt.TS,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := s.repo.RecordEvents(ctx, rows); err != nil {
		return fmt.Errorf("record job events: %w", err)
	}
	return nil
}

// eventDetail picks the most useful free-text column for an event: the error
// note when present, otherwise the label and confidence once known.
func eventDetail(evt progress.Event) *string {
	if evt.Note != "" {
		note := evt.Note
		return &note
	}
	if evt.Label != "" {
		detail := fmt.Sprintf("%s (%.2f)", evt.Label, evt.Confidence)
		return &detail
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}
