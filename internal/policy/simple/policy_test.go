// Package simple includes tests for the permissive limiter implementation.
package simple

import (
	"context"
	"testing"
)

// TestPolicyWaitNeverBlocks ensures the pass-through policy admits calls.
func TestPolicyWaitNeverBlocks(t *testing.T) {
	t.Parallel()

	p := New()
	if err := p.Wait(context.Background(), "edenai"); err != nil {
		t.Fatalf("expected Wait to return nil, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx, "edenai"); err != nil {
		t.Fatalf("expected Wait to ignore context state, got %v", err)
	}
}
