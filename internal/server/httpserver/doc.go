// Package httpserver serves the operational HTTP endpoints on a chi router:
//
//   - GET /health: liveness
//   - GET /ready: store reachability
//   - GET /metrics: Prometheus metrics, optionally limited to an IP allowlist
//   - POST <webhook path>: Telegram updates, in webhook mode only
//
// Every request gets a request id that is carried in the logging context.
package httpserver
