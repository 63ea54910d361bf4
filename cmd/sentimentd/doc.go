// Package main hosts the sentiment service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes the synchronous /sentiments CRUD endpoints and the asynchronous
//     /sentiment-async submission and polling endpoints. Submissions are validated, persisted via the JobStore,
//     and enqueued for the worker pool.
//   - Dispatcher & queue: jobs flow through a bounded in-memory queue sized by config.Analysis.QueueDepth and are
//     fanned out to a fixed worker pool sized by config.Analysis.Workers. Context cancellation stops workers
//     cleanly on shutdown.
//   - Analysis pipeline: workers hold each job in pending and then running for the configured staging delays, call
//     the EdenAI sentiment provider (or the static analyzer when no API key is configured), and persist the verdict
//     as a sentiment record.
//   - Persistence & fanout: sentiment records live in Postgres (requests + sentiments tables) or in memory for
//     development. Raw provider responses are archived to the configured blob store (memory/local/GCS), a compact
//     Pub/Sub notification is published when a topic is configured, and progress events are buffered and sent to
//     configured sinks for the persisted audit trail and metrics.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging; OpenTelemetry
//     counters and histograms export through the Prometheus /metrics handler. The service is stateless across
//     requests, suitable for Cloud Run scale-out.
//
// Operational notes:
//   - Concurrency model: bounded queue + fixed worker pool. Shutdown is coordinated via context cancellation
//     propagated from main through the dispatcher to workers.
//   - Rate limiting: a per-provider token bucket guards the upstream provider when enabled; the pass-through policy
//     applies otherwise.
//   - Observability: zap logs carry job IDs at key transitions; the progress hub batches job lifecycle events for
//     downstream sinks; jobs surface their full history at /sentiment-async/{id}/events when Postgres is configured.
//   - Cloud Run: the HTTP server listens on the configured port. Health endpoints (/healthz, /db_check) remain
//     lightweight; the process reacts to SIGTERM for graceful drain and shutdown of workers.
//
// Quick checklist:
//   - Configure env vars: SENTIMENT_SERVER_PORT, SENTIMENT_ANALYSIS_WORKERS, EDENAI_API_KEY, archive settings
//     (SENTIMENT_ARCHIVE_*), pubsub project/topic, and the database DSN and table names when persistence beyond
//     memory is required.
//   - Run locally: go run ./cmd/sentimentd -config config.yaml (or rely solely on env overrides).
//   - Cloud Run: container listens on the configured port, remains stateless across requests, and shuts down
//     cleanly on SIGTERM.
package main
