// Package api hosts the HTTP server, middleware, and REST handlers for the
// sentiment service. Notable routes:
//   - GET /healthz and /db_check for liveness probes.
//   - GET /metrics for Prometheus scraping.
//   - /sentiments CRUD with conditional GET (ETag / If-None-Match).
//   - POST /sentiment-async for job submission, GET /sentiment-async/{id}
//     for polling, and /events for the persisted audit trail.
package api
