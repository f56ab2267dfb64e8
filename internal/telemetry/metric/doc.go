// Package metric provides Prometheus metrics for filegate.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: the registry, metric helpers and HTTP handler
//   - collector.go: a scrape-time collector for the user registry size
//
// Metrics include:
//
//   - Token issuance, reset and claim counters
//   - Gate decisions by outcome
//   - Delivery and broadcast results
//   - Update counts and handling latency by kind
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
