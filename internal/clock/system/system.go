// Package system provides a real clock implementation.
package system

import "time"

// Clock implements sentiment.Clock using time.Now. Timestamps are UTC so
// stored analyzed_at values and ETag math never depend on host locale.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
