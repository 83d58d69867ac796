// Package api implements the climate node's read-only HTTP status server.
//
// This package provides:
//   - GET /api/v1/health for liveness probes
//   - GET /api/v1/status with the same states the status command reports,
//     plus the last published reading
//   - GET /metrics in the Prometheus exposition format (when wired)
//   - Middleware stack (request ID, logging, recovery)
//
// There is deliberately no command endpoint: control stays on the console
// and the message bus.
package api
