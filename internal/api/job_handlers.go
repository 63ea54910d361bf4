package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/sentiment-service/internal/progress"
	"github.com/JakeFAU/sentiment-service/internal/sentiment"
	"github.com/JakeFAU/sentiment-service/internal/store"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
	enqueueTimeout    = 5 * time.Second
	eventsTimeout     = 3 * time.Second
)

// submitJob handles POST /sentiment-async. The job is stored pending and
// enqueued; the worker pool does the rest. The response is 202 with a
// Location header pointing at the polling endpoint.
func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	var in textInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	text, err := in.value()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	jobID, err := s.idGen.NewRawID()
	if err != nil {
		s.logger.Error("generate job id failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to accept job")
		return
	}
	now := s.clock.Now()
	job := sentiment.Job{
		ID:        jobID,
		Status:    sentiment.JobStatusPending,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.Put(r.Context(), job); err != nil {
		s.logger.Error("store job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to accept job")
		return
	}

	queueCtx, cancel := context.WithTimeout(r.Context(), enqueueTimeout)
	defer cancel()
	item := sentiment.QueueItem{JobID: jobID, Text: text, Submitted: now.Unix()}
	if err := s.dispatcher.Enqueue(queueCtx, item); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusRequestTimeout
		}
		s.logger.Error("enqueue job failed", zap.Error(err), zap.String("job_id", jobID.String()))
		writeError(w, status, "failed to enqueue job")
		return
	}

	if s.emitter != nil {
		s.emitter.Emit(progress.Event{
			JobID: progress.UUIDToBytes(jobID),
			TS:    now,
			Stage: progress.StageJobSubmitted,
		})
	}

	w.Header().Set("Location", jobPath(jobID))
	writeJSON(w, http.StatusAccepted, toJobDTO(job))
}

// getJob handles GET /sentiment-async/{job_id}. It returns a point-in-time
// snapshot; callers poll until a terminal status appears.
func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseJobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := s.jobs.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("load job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, toJobDTO(job))
}

// listJobEvents handles GET /sentiment-async/{job_id}/events?limit=&offset=.
// It returns {"events": [...]} on success, 404 for an unknown job, 503 when
// no audit repository is configured, or 500 for repository errors.
func (s *Server) listJobEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusServiceUnavailable, "audit repository unavailable")
		return
	}
	jobID, err := parseJobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, offset, err := parseLimitOffset(r, defaultEventLimit, maxEventLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), eventsTimeout)
	defer cancel()

	if _, err := s.jobs.Get(ctx, jobID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("load job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	events, err := s.events.ListJobEvents(ctx, jobID, limit, offset)
	if err != nil {
		s.logger.Error("list job events failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list job events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": toEventDTOs(events),
	})
}

func parseJobID(r *http.Request) (uuid.UUID, error) {
	jobIDStr := chi.URLParam(r, "job_id")
	if jobIDStr == "" {
		return uuid.UUID{}, errors.New("job_id is required")
	}
	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		return uuid.UUID{}, errors.New("invalid job_id")
	}
	return jobID, nil
}

// parseLimitOffset validates pagination for the audit endpoint; oversized
// limits clamp to the maximum.
func parseLimitOffset(r *http.Request, def, maxLimit int) (int, int, error) {
	q := r.URL.Query()
	limit := def
	if limStr := q.Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if val > maxLimit {
			val = maxLimit
		}
		limit = val
	}
	offset := 0
	if offStr := q.Get("offset"); offStr != "" {
		val, err := strconv.Atoi(offStr)
		if err != nil || val < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = val
	}
	return limit, offset, nil
}

type jobDTO struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	ResultID  *string       `json:"result_id,omitempty"`
	Error     *string       `json:"error,omitempty"`
	Links     resourceLinks `json:"links"`
}

func toJobDTO(job sentiment.Job) jobDTO {
	dto := jobDTO{
		ID:        job.ID.String(),
		Status:    string(job.Status),
		Text:      job.Text,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
		Links:     resourceLinks{Self: jobPath(job.ID)},
	}
	if job.ResultID != nil {
		id := job.ResultID.String()
		dto.ResultID = &id
		if job.Status == sentiment.JobStatusCompleted {
			dto.Links.Result = sentimentPath(*job.ResultID)
		}
	}
	if job.ErrorMessage != "" {
		msg := job.ErrorMessage
		dto.Error = &msg
	}
	return dto
}

func jobPath(id uuid.UUID) string {
	return "/sentiment-async/" + id.String()
}

type eventDTO struct {
	Stage     string    `json:"stage"`
	Detail    *string   `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toEventDTOs(in []store.JobEvent) []eventDTO {
	out := make([]eventDTO, 0, len(in))
	for _, evt := range in {
		out = append(out, eventDTO{
			Stage:     evt.Stage,
			Detail:    evt.Detail,
			CreatedAt: evt.CreatedAt,
		})
	}
	return out
}
