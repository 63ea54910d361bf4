// Package static includes tests for the fixed-verdict analyzer.
package static

import (
	"context"
	"encoding/json"
	"testing"
)

// TestAnalyzeNeutralVerdict confirms the constant label and confidence.
func TestAnalyzeNeutralVerdict(t *testing.T) {
	t.Parallel()

	a := New()
	analysis, err := a.Analyze(context.Background(), "any text at all")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.Label != "neutral" {
		t.Fatalf("expected neutral label, got %q", analysis.Label)
	}
	if analysis.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %f", analysis.Confidence)
	}
	if analysis.Provider != "static" {
		t.Fatalf("expected static provider, got %q", analysis.Provider)
	}
	if !json.Valid(analysis.Raw) {
		t.Fatalf("expected raw payload to be valid JSON: %s", analysis.Raw)
	}
}

// TestNameStable keeps the analyzer name fixed for metric labels.
func TestNameStable(t *testing.T) {
	t.Parallel()

	if got := New().Name(); got != "static" {
		t.Fatalf("expected name static, got %q", got)
	}
}
