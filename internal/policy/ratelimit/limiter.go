// Package ratelimit implements a token bucket limiter for per-provider rate control.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/sentiment-service/internal/telemetry"
)

// Limiter manages per-provider rate limits.
type Limiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// Config holds rate limiter configuration.
type Config struct {
	DefaultRPS   float64
	DefaultBurst int
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.DefaultRPS)
	if cfg.DefaultRPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.DefaultBurst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  r,
		defaultBurst: burst,
	}
}

// Wait blocks until a token is available for the given provider, respecting
// the context. Waits longer than a millisecond are recorded as metrics.
func (l *Limiter) Wait(ctx context.Context, provider string) error {
	if provider == "" {
		provider = "unknown"
	}
	l.mu.Lock()
	limiter, exists := l.limiters[provider]
	if !exists {
		limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[provider] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	err := limiter.Wait(ctx)
	if err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	// Measuring the whole Wait call is a good proxy for the delay the
	// limiter introduced; an immediately available token observes ~0.
	if duration := time.Since(start); duration > time.Millisecond {
		telemetry.ObserveRateLimitDelay(provider, duration)
	}
	return nil
}
