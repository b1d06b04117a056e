// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Ingestion runs by operation and outcome, with fetch/store latencies
//   - Records written per collection
//   - HTTP request counts, latencies and in-flight requests
//   - History records pruned by retention
package metrics
