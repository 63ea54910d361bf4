// Package edenai implements the sentiment Analyzer against the EdenAI
// text analysis API.
package edenai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/JakeFAU/sentiment-service/internal/sentiment"
)

const (
	defaultBaseURL = "https://api.edenai.run/v2/text/sentiment_analysis"
	defaultTimeout = 15 * time.Second

	// maxResponseBytes caps how much of a provider response is read.
	maxResponseBytes = 1 << 20
)

// Config controls provider selection and transport behavior.
type Config struct {
	APIKey    string
	BaseURL   string
	Providers string
	Language  string
	Timeout   time.Duration
}

// Client implements sentiment.Analyzer using EdenAI. One request scores
// one text; the response carries a block per requested provider.
type Client struct {
	cfg        Config
	provider   string
	httpClient *http.Client
}

// New builds a Client. Zero-valued config fields fall back to the
// google provider, English, and the public EdenAI endpoint.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Providers == "" {
		cfg.Providers = "google"
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg: cfg,
		// The response is keyed by provider name; score the first one listed.
		provider: strings.TrimSpace(strings.Split(cfg.Providers, ",")[0]),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newHTTPTransport(),
		},
	}
}

// Name identifies the analyzer for rate limiting and metrics.
func (c *Client) Name() string {
	return "edenai"
}

type analysisRequest struct {
	Providers string `json:"providers"`
	Language  string `json:"language"`
	Text      string `json:"text"`
}

type providerResult struct {
	Status               string  `json:"status"`
	GeneralSentiment     string  `json:"general_sentiment"`
	GeneralSentimentRate float64 `json:"general_sentiment_rate"`
}

// Analyze scores text and returns the normalized verdict plus the raw
// response body for archival.
func (c *Client) Analyze(ctx context.Context, text string) (sentiment.Analysis, error) {
	payload, err := json.Marshal(analysisRequest{
		Providers: c.cfg.Providers,
		Language:  c.cfg.Language,
		Text:      text,
	})
	if err != nil {
		return sentiment.Analysis{}, fmt.Errorf("encode provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return sentiment.Analysis{}, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return sentiment.Analysis{}, fmt.Errorf("call sentiment provider: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-side close

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return sentiment.Analysis{}, fmt.Errorf("read provider response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return sentiment.Analysis{}, fmt.Errorf("sentiment provider returned status %d", resp.StatusCode)
	}

	return c.parse(raw)
}

func (c *Client) parse(raw []byte) (sentiment.Analysis, error) {
	var body map[string]providerResult
	if err := json.Unmarshal(raw, &body); err != nil {
		return sentiment.Analysis{}, fmt.Errorf("decode provider response: %w", err)
	}

	result, ok := body[c.provider]
	if !ok {
		return sentiment.Analysis{}, fmt.Errorf("provider %q missing from response", c.provider)
	}
	if result.Status != "success" {
		return sentiment.Analysis{}, fmt.Errorf("provider %q returned status %q", c.provider, result.Status)
	}

	confidence := result.GeneralSentimentRate
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return sentiment.Analysis{
		Label:      strings.ToLower(result.GeneralSentiment),
		Confidence: confidence,
		Provider:   c.provider,
		Raw:        raw,
	}, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
