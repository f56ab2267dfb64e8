package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "filegate"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Token metrics
	TokensIssued  prometheus.Counter
	TokensReset   prometheus.Counter
	TokensClaimed prometheus.Counter

	// Gate metrics
	GateDecisions *prometheus.CounterVec

	// Content metrics
	Deliveries         *prometheus.CounterVec
	BroadcastMessages  *prometheus.CounterVec
	BroadcastsInFlight prometheus.Gauge

	// Update metrics
	UpdatesTotal    *prometheus.CounterVec
	UpdateDuration  *prometheus.HistogramVec
	UpdatesInFlight prometheus.Gauge
}

// NewRegistry creates a registry with all filegate metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,

		TokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Verification tokens issued to users",
		}),
		TokensReset: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_reset_total",
			Help:      "Token verifications stopped by users",
		}),
		TokensClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_claimed_total",
			Help:      "Pre-minted tokens claimed with /token",
		}),

		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Access gate decisions by outcome",
		}, []string{"outcome"}),

		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivered_messages_total",
			Help:      "Channel messages copied to users by result",
		}, []string{"result"}),
		BroadcastMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_recipients_total",
			Help:      "Broadcast recipients by result",
		}, []string{"result"}),
		BroadcastsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "broadcasts_in_flight",
			Help:      "Broadcasts currently running",
		}),

		UpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates handled by kind and status",
		}, []string{"kind", "status"}),
		UpdateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_duration_seconds",
			Help:      "Time spent handling one update",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		UpdatesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "updates_in_flight",
			Help:      "Updates currently being handled",
		}),
	}

	reg.MustRegister(
		r.TokensIssued,
		r.TokensReset,
		r.TokensClaimed,
		r.GateDecisions,
		r.Deliveries,
		r.BroadcastMessages,
		r.BroadcastsInFlight,
		r.UpdatesTotal,
		r.UpdateDuration,
		r.UpdatesInFlight,
	)
	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry, creating it on first use.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns the /metrics handler of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Prometheus returns the underlying registry for components that register
// their own collectors.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// IncTokenIssued counts one issued token.
func (r *Registry) IncTokenIssued() { r.TokensIssued.Inc() }

// IncTokenReset counts one reset.
func (r *Registry) IncTokenReset() { r.TokensReset.Inc() }

// IncTokenClaimed counts one claimed token.
func (r *Registry) IncTokenClaimed() { r.TokensClaimed.Inc() }

// RecordGateDecision counts one gate outcome.
func (r *Registry) RecordGateDecision(outcome string) {
	r.GateDecisions.WithLabelValues(outcome).Inc()
}

// RecordDelivery adds n messages with the given result.
func (r *Registry) RecordDelivery(result string, n int) {
	if n > 0 {
		r.Deliveries.WithLabelValues(result).Add(float64(n))
	}
}

// RecordBroadcast adds n recipients with the given result.
func (r *Registry) RecordBroadcast(result string, n int) {
	if n > 0 {
		r.BroadcastMessages.WithLabelValues(result).Add(float64(n))
	}
}

// RecordUpdate counts one handled update.
func (r *Registry) RecordUpdate(kind, status string) {
	r.UpdatesTotal.WithLabelValues(kind, status).Inc()
}

// ObserveUpdateDuration records the handling time of one update.
func (r *Registry) ObserveUpdateDuration(kind string, seconds float64) {
	r.UpdateDuration.WithLabelValues(kind).Observe(seconds)
}
