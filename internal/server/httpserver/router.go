package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yndnr/filegate/internal/infra/buildinfo"
	"github.com/yndnr/filegate/internal/telemetry/logger"
)

// DefaultReadyTimeout bounds a single readiness probe.
const DefaultReadyTimeout = 2 * time.Second

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig holds the handlers mounted by NewRouter. Nil fields leave the
// corresponding route out.
type RouterConfig struct {
	// Ready is probed by GET /ready.
	Ready Pinger

	// Metrics serves GET /metrics.
	Metrics http.Handler

	// MetricsAllow limits /metrics to these IPs or CIDR blocks.
	MetricsAllow []string

	// Webhook receives Telegram updates on POST WebhookPath.
	Webhook     http.Handler
	WebhookPath string

	// TrustProxy enables X-Forwarded-For / X-Real-IP handling.
	TrustProxy bool

	Logger logger.Logger
}

// NewRouter builds the HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestID(), AccessLog(log), Recover(log))

	r.Get("/health", handleHealth)
	if cfg.Ready != nil {
		r.Get("/ready", handleReady(cfg.Ready, log))
	}
	if cfg.Metrics != nil {
		r.With(NetworkACL(cfg.MetricsAllow, log)).Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.Webhook != nil && cfg.WebhookPath != "" {
		r.Method(http.MethodPost, cfg.WebhookPath, cfg.Webhook)
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "FG-REQ-4040", "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "FG-REQ-4050", "method not allowed")
	})
	return r
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Get().Version})
}

func handleReady(p Pinger, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), DefaultReadyTimeout)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			log.WithContext(r.Context()).Warn("readiness probe failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: "store unreachable"})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ready"})
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
