package edenai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeSuccess(t *testing.T) {
	t.Parallel()

	var gotAuth, gotContentType string
	var gotBody analysisRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"google":{"status":"success","general_sentiment":"Positive","general_sentiment_rate":0.93}}`))
	}))
	defer server.Close()

	client := New(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})

	analysis, err := client.Analyze(context.Background(), "I love this product")
	require.NoError(t, err)

	require.Equal(t, "Bearer test-key", gotAuth)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, "google", gotBody.Providers)
	require.Equal(t, "en", gotBody.Language)
	require.Equal(t, "I love this product", gotBody.Text)

	require.Equal(t, "positive", analysis.Label)
	require.InDelta(t, 0.93, analysis.Confidence, 0.0001)
	require.Equal(t, "google", analysis.Provider)
	require.NotEmpty(t, analysis.Raw)
}

func TestAnalyzeUsesFirstConfiguredProvider(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"amazon":{"status":"success","general_sentiment":"Negative","general_sentiment_rate":0.81},"google":{"status":"fail"}}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Providers: "amazon,google"})

	analysis, err := client.Analyze(context.Background(), "terrible")
	require.NoError(t, err)
	require.Equal(t, "negative", analysis.Label)
	require.Equal(t, "amazon", analysis.Provider)
}

func TestAnalyzeNon2xxStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})

	_, err := client.Analyze(context.Background(), "anything")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestAnalyzeProviderMissingFromResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"amazon":{"status":"success","general_sentiment":"Neutral","general_sentiment_rate":0.5}}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Providers: "google"})

	_, err := client.Analyze(context.Background(), "anything")
	require.Error(t, err)
	require.Contains(t, err.Error(), `provider "google" missing`)
}

func TestAnalyzeProviderFailureStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"google":{"status":"fail","general_sentiment":"","general_sentiment_rate":0}}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})

	_, err := client.Analyze(context.Background(), "anything")
	require.Error(t, err)
	require.Contains(t, err.Error(), `status "fail"`)
}

func TestAnalyzeConfidenceClamped(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"google":{"status":"success","general_sentiment":"Positive","general_sentiment_rate":1.7}}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})

	analysis, err := client.Analyze(context.Background(), "great")
	require.NoError(t, err)
	require.Equal(t, 1.0, analysis.Confidence)
}

func TestAnalyzeContextCanceled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Analyze(ctx, "anything")
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNameStable(t *testing.T) {
	t.Parallel()

	require.Equal(t, "edenai", New(Config{}).Name())
}
