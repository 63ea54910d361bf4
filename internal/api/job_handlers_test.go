package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/sentiment-service/internal/analyzer/static"
	sysclock "github.com/JakeFAU/sentiment-service/internal/clock/system"
	"github.com/JakeFAU/sentiment-service/internal/dispatcher"
	"github.com/JakeFAU/sentiment-service/internal/hash/sha256"
	idgen "github.com/JakeFAU/sentiment-service/internal/id/uuid"
	queueMemory "github.com/JakeFAU/sentiment-service/internal/queue/memory"
	"github.com/JakeFAU/sentiment-service/internal/sentiment"
	storageMemory "github.com/JakeFAU/sentiment-service/internal/storage/memory"
	"github.com/JakeFAU/sentiment-service/internal/store"
	"github.com/JakeFAU/sentiment-service/internal/worker"
)

func TestServer_SubmitJob_Accepted(t *testing.T) {
	t.Parallel()

	jobs := storageMemory.NewJobStore()
	q := queueMemory.NewQueue(10)
	server := NewServer(
		storageMemory.NewRecordStore(),
		jobs,
		nil,
		dispatcher.New(q, nil),
		&stubAnalyzer{label: "positive"},
		idgen.New(),
		&stubClock{now: time.Unix(1700000000, 0).UTC()},
		nil,
		testConfig(),
		zap.NewNop(),
	)

	req := httptest.NewRequest(http.MethodPost, "/sentiment-async", bytes.NewBufferString(`{"text":"great service"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted jobDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.Equal(t, "pending", accepted.Status)
	require.Equal(t, "great service", accepted.Text)
	require.Nil(t, accepted.ResultID)
	require.Nil(t, accepted.Error)
	require.Equal(t, "/sentiment-async/"+accepted.ID, rec.Header().Get("Location"))
	require.Equal(t, "/sentiment-async/"+accepted.ID, accepted.Links.Self)
	require.Empty(t, accepted.Links.Result)

	item, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, accepted.ID, item.JobID.String())
	require.Equal(t, "great service", item.Text)

	stored, err := jobs.Get(context.Background(), item.JobID)
	require.NoError(t, err)
	require.Equal(t, sentiment.JobStatusPending, stored.Status)
}

func TestServer_SubmitJob_NullText(t *testing.T) {
	t.Parallel()

	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/sentiment-async", bytes.NewBufferString(`{"text":null}`))
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "text is required")
}

func TestServer_GetJob_NotFound(t *testing.T) {
	t.Parallel()

	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/sentiment-async/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "job not found")
}

func TestServer_GetJob_MalformedID(t *testing.T) {
	t.Parallel()

	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/sentiment-async/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid job_id")
}

func TestServer_GetJob_CompletedHasResultLink(t *testing.T) {
	t.Parallel()

	jobs := storageMemory.NewJobStore()
	jobID := uuid.New()
	resultID := uuid.New()
	now := time.Unix(1700000200, 0).UTC()
	require.NoError(t, jobs.Put(context.Background(), sentiment.Job{
		ID:        jobID,
		Status:    sentiment.JobStatusCompleted,
		Text:      "done already",
		CreatedAt: now,
		UpdatedAt: now,
		ResultID:  &resultID,
	}))
	server := NewServer(
		storageMemory.NewRecordStore(),
		jobs,
		nil,
		dispatcher.New(queueMemory.NewQueue(1), nil),
		&stubAnalyzer{},
		idgen.New(),
		&stubClock{now: now},
		nil,
		testConfig(),
		zap.NewNop(),
	)

	req := httptest.NewRequest(http.MethodGet, "/sentiment-async/"+jobID.String(), nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var dto jobDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.Equal(t, "completed", dto.Status)
	require.NotNil(t, dto.ResultID)
	require.Equal(t, resultID.String(), *dto.ResultID)
	require.Equal(t, "/sentiments/"+resultID.String(), dto.Links.Result)
}

func TestServer_ListJobEvents(t *testing.T) {
	t.Parallel()

	jobs := storageMemory.NewJobStore()
	jobID := uuid.New()
	now := time.Unix(1700000300, 0).UTC()
	require.NoError(t, jobs.Put(context.Background(), sentiment.Job{
		ID: jobID, Status: sentiment.JobStatusCompleted, CreatedAt: now, UpdatedAt: now,
	}))
	detail := "positive (0.91)"
	audit := &stubAuditRepo{events: []store.JobEvent{
		{JobID: jobID, Stage: "JOB_SUBMITTED", CreatedAt: now},
		{JobID: jobID, Stage: "PROVIDER_DONE", Detail: &detail, CreatedAt: now.Add(time.Second)},
	}}
	server := NewServer(
		storageMemory.NewRecordStore(),
		jobs,
		audit,
		dispatcher.New(queueMemory.NewQueue(1), nil),
		&stubAnalyzer{},
		idgen.New(),
		&stubClock{now: now},
		nil,
		testConfig(),
		zap.NewNop(),
	)

	req := httptest.NewRequest(http.MethodGet, "/sentiment-async/"+jobID.String()+"/events", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Events []eventDTO `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Events, 2)
	require.Equal(t, "JOB_SUBMITTED", payload.Events[0].Stage)
	require.NotNil(t, payload.Events[1].Detail)
	require.Equal(t, detail, *payload.Events[1].Detail)
}

func TestServer_ListJobEvents_UnknownJob(t *testing.T) {
	t.Parallel()

	server := NewServer(
		storageMemory.NewRecordStore(),
		storageMemory.NewJobStore(),
		&stubAuditRepo{},
		dispatcher.New(queueMemory.NewQueue(1), nil),
		&stubAnalyzer{},
		idgen.New(),
		&stubClock{now: time.Unix(100, 0).UTC()},
		nil,
		testConfig(),
		zap.NewNop(),
	)

	req := httptest.NewRequest(http.MethodGet, "/sentiment-async/"+uuid.NewString()+"/events", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListJobEvents_NoRepository(t *testing.T) {
	t.Parallel()

	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/sentiment-async/"+uuid.NewString()+"/events", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_ListJobEvents_InvalidLimit(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	server := NewServer(
		storageMemory.NewRecordStore(),
		storageMemory.NewJobStore(),
		&stubAuditRepo{},
		dispatcher.New(queueMemory.NewQueue(1), nil),
		&stubAnalyzer{},
		idgen.New(),
		&stubClock{now: time.Unix(100, 0).UTC()},
		nil,
		testConfig(),
		zap.NewNop(),
	)

	req := httptest.NewRequest(http.MethodGet, "/sentiment-async/"+jobID.String()+"/events?limit=-1", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestServer_AsyncScenario_EndToEnd drives the full flow through the public
// surface: submit a job, poll until it completes, then fetch the stored
// sentiment record the job produced.
func TestServer_AsyncScenario_EndToEnd(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := storageMemory.NewRecordStore()
	jobs := storageMemory.NewJobStore()
	q := queueMemory.NewQueue(10)
	w := worker.New(
		q,
		jobs,
		records,
		nil,
		nil,
		static.New(),
		nil,
		sha256.New(),
		sysclock.New(),
		idgen.New(),
		nil,
		worker.Config{},
		zap.NewNop(),
	)
	go w.Run(ctx)

	server := NewServer(
		records,
		jobs,
		nil,
		dispatcher.New(q, nil),
		static.New(),
		idgen.New(),
		sysclock.New(),
		nil,
		testConfig(),
		zap.NewNop(),
	)

	req := httptest.NewRequest(http.MethodPost, "/sentiment-async", bytes.NewBufferString(`{"text":"great service"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	location := rec.Header().Get("Location")
	require.NotEmpty(t, location)

	var submitted jobDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	require.Equal(t, "pending", submitted.Status)
	require.Equal(t, "/sentiment-async/"+submitted.ID, location)

	var final jobDTO
	require.Eventually(t, func() bool {
		pollRec := httptest.NewRecorder()
		pollReq := httptest.NewRequest(http.MethodGet, location, nil)
		server.Handler().ServeHTTP(pollRec, pollReq)
		if pollRec.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(pollRec.Body.Bytes(), &final); err != nil {
			return false
		}
		return final.Status == "completed"
	}, time.Second, 10*time.Millisecond)

	require.NotNil(t, final.ResultID)
	require.Nil(t, final.Error)
	require.Equal(t, "/sentiments/"+*final.ResultID, final.Links.Result)

	getRec := httptest.NewRecorder()
	getReq := httptest.NewRequest(http.MethodGet, final.Links.Result, nil)
	server.Handler().ServeHTTP(getRec, getReq)

	require.Equal(t, http.StatusOK, getRec.Code)
	require.Contains(t, getRec.Body.String(), "great service")
	require.NotEmpty(t, getRec.Header().Get("ETag"))
}

func TestParseJobIDRequiresParam(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/sentiment-async/ignored", nil)
	if _, err := parseJobID(req); err == nil {
		t.Fatal("expected error when job_id param is absent")
	}

	req = withJobIDParam(req, uuid.NewString())
	if _, err := parseJobID(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type stubAuditRepo struct {
	events []store.JobEvent
	err    error
}

func (s *stubAuditRepo) RecordEvents(_ context.Context, events []store.JobEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, events...)
	return nil
}

func (s *stubAuditRepo) ListJobEvents(_ context.Context, jobID uuid.UUID, limit, offset int) ([]store.JobEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	matched := make([]store.JobEvent, 0, len(s.events))
	for _, evt := range s.events {
		if evt.JobID == jobID {
			matched = append(matched, evt)
		}
	}
	if offset >= len(matched) {
		return []store.JobEvent{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func withJobIDParam(r *http.Request, jobID string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("job_id", jobID)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, ctx))
}
