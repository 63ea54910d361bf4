package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/sentiment-service/internal/sentiment"
	"github.com/JakeFAU/sentiment-service/internal/store"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// textInput is the request body for create, update and async submit. Text
// is a pointer so an explicit JSON null is distinguishable from a missing
// field; both are rejected.
type textInput struct {
	Text *string `json:"text"`
}

func (in textInput) value() (string, error) {
	if in.Text == nil {
		return "", errors.New("text is required")
	}
	if strings.TrimSpace(*in.Text) == "" {
		return "", errors.New("text must not be blank")
	}
	return *in.Text, nil
}

// listSentiments handles GET /sentiments?limit=&offset=. The response is a
// JSON array ordered newest analysis first.
func (s *Server) listSentiments(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseListWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := s.records.RetrieveAll(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list sentiments failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list sentiments")
		return
	}
	out := make([]sentimentDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toSentimentDTO(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

// createSentiment handles POST /sentiments. The analysis runs inline; the
// created resource is returned with a Location header.
func (s *Server) createSentiment(w http.ResponseWriter, r *http.Request) {
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
	analysis, err := s.analyzer.Analyze(r.Context(), text)
	if err != nil {
		s.logger.Error("provider analysis failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "sentiment provider unavailable")
		return
	}
	id, err := s.idGen.NewRawID()
	if err != nil {
		s.logger.Error("generate record id failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create sentiment")
		return
	}
	rec, err := s.records.Create(r.Context(), store.SentimentRecord{
		ID:         id,
		Text:       text,
		Sentiment:  analysis.Label,
		Confidence: analysis.Confidence,
		AnalyzedAt: s.clock.Now(),
	})
	if err != nil {
		s.logger.Error("create sentiment failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create sentiment")
		return
	}
	w.Header().Set("Location", sentimentPath(rec.ID))
	writeJSON(w, http.StatusCreated, toSentimentDTO(rec))
}

// getSentiment handles GET /sentiments/{sentiment_id} with conditional GET
// support. An If-None-Match header equal to the current validator yields
// 304 with an empty body; every 200 carries the ETag header.
func (s *Server) getSentiment(w http.ResponseWriter, r *http.Request) {
	id, err := parseSentimentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.records.Retrieve(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sentiment not found")
			return
		}
		s.logger.Error("retrieve sentiment failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load sentiment")
		return
	}
	etag := sentiment.ComputeETag(rec.ID, rec.AnalyzedAt)
	w.Header().Set("ETag", etag)
	if sentiment.ETagMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, toSentimentDTO(rec))
}

// updateSentiment handles PUT /sentiments/{sentiment_id}: the analysis is
// re-run against the new text and both the text and the verdict are
// replaced in place.
func (s *Server) updateSentiment(w http.ResponseWriter, r *http.Request) {
	id, err := parseSentimentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
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
	if _, err := s.records.Retrieve(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sentiment not found")
			return
		}
		s.logger.Error("retrieve sentiment failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load sentiment")
		return
	}
	analysis, err := s.analyzer.Analyze(r.Context(), text)
	if err != nil {
		s.logger.Error("provider analysis failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "sentiment provider unavailable")
		return
	}
	rec, err := s.records.Update(r.Context(), store.SentimentRecord{
		ID:         id,
		Text:       text,
		Sentiment:  analysis.Label,
		Confidence: analysis.Confidence,
		AnalyzedAt: s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sentiment not found")
			return
		}
		s.logger.Error("update sentiment failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update sentiment")
		return
	}
	writeJSON(w, http.StatusOK, toSentimentDTO(rec))
}

// deleteSentiment handles DELETE /sentiments/{sentiment_id}. Deleting an
// already-deleted record reports 404.
func (s *Server) deleteSentiment(w http.ResponseWriter, r *http.Request) {
	id, err := parseSentimentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.records.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sentiment not found")
			return
		}
		s.logger.Error("delete sentiment failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete sentiment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseSentimentID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "sentiment_id")
	if raw == "" {
		return uuid.UUID{}, errors.New("sentiment_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, errors.New("invalid sentiment_id")
	}
	return id, nil
}

// parseListWindow validates pagination for the records collection. Unlike
// the audit endpoint the bounds here are strict: out-of-range values are
// rejected rather than clamped.
func parseListWindow(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	limit := defaultListLimit
	if limStr := q.Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val < 1 || val > maxListLimit {
			return 0, 0, fmt.Errorf("limit must be between 1 and %d", maxListLimit)
		}
		limit = val
	}
	offset := 0
	if offStr := q.Get("offset"); offStr != "" {
		val, err := strconv.Atoi(offStr)
		if err != nil || val < 0 {
			return 0, 0, errors.New("offset must be >= 0")
		}
		offset = val
	}
	return limit, offset, nil
}

type resourceLinks struct {
	Self       string `json:"self"`
	Collection string `json:"collection,omitempty"`
	Result     string `json:"result,omitempty"`
}

type sentimentDTO struct {
	ID         string        `json:"id"`
	Text       string        `json:"text"`
	Sentiment  string        `json:"sentiment"`
	Confidence float64       `json:"confidence"`
	AnalyzedAt time.Time     `json:"analyzed_at"`
	Links      resourceLinks `json:"links"`
}

func toSentimentDTO(rec store.SentimentRecord) sentimentDTO {
	return sentimentDTO{
		ID:         rec.ID.String(),
		Text:       rec.Text,
		Sentiment:  rec.Sentiment,
		Confidence: rec.Confidence,
		AnalyzedAt: rec.AnalyzedAt,
		Links: resourceLinks{
			Self:       sentimentPath(rec.ID),
			Collection: "/sentiments",
		},
	}
}

func sentimentPath(id uuid.UUID) string {
	return "/sentiments/" + id.String()
}
