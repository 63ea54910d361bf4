// Package sentiment defines the core types shared across the analysis
// service: stored results, async jobs, and the interfaces the worker,
// API, and storage layers are wired through.
package sentiment
