// Package static provides a provider-free Analyzer that returns a fixed
// neutral verdict. It keeps the service operable when no provider key is
// configured, such as local development and CI.
package static

import (
	"context"

	"github.com/JakeFAU/sentiment-service/internal/sentiment"
)

// Analyzer implements sentiment.Analyzer with a constant response.
type Analyzer struct{}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Name identifies the analyzer for rate limiting and metrics.
func (*Analyzer) Name() string {
	return "static"
}

// Analyze returns a neutral verdict with zero confidence so downstream
// consumers can tell synthetic results from provider ones.
func (*Analyzer) Analyze(_ context.Context, _ string) (sentiment.Analysis, error) {
	return sentiment.Analysis{
		Label:      "neutral",
		Confidence: 0.0,
		Provider:   "static",
		Raw:        []byte(`{"static":{"status":"success","general_sentiment":"Neutral","general_sentiment_rate":0.0}}`),
	}, nil
}
