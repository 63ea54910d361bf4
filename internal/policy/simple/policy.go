// Package simple contains a permissive pass-through limiter.
package simple

import "context"

// Policy admits every provider call immediately. It stands in for the token
// bucket limiter when rate limiting is disabled.
type Policy struct{}

// New creates a new Policy.
func New() *Policy {
	return &Policy{}
}

// Wait returns immediately without consuming anything.
func (Policy) Wait(context.Context, string) error {
	return nil
}
