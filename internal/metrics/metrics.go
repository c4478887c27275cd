package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for CommandsTotal.
const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
	OutcomeFailed    = "failed"
	OutcomeEmpty     = "empty"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Dispatch metrics
	CommandsTotal           *prometheus.CounterVec
	DispatchDurationSeconds *prometheus.HistogramVec

	// ESI metrics
	ESIRequestsTotal          *prometheus.CounterVec
	ESIRequestDurationSeconds *prometheus.HistogramVec
	SpecRefreshTotal          *prometheus.CounterVec
	SpecVersions              *prometheus.GaugeVec

	// Event gate metrics
	DedupSuppressedTotal *prometheus.CounterVec
	RateLimitedTotal     *prometheus.CounterVec
	RateLimiterKeys      *prometheus.GaugeVec

	// Reply metrics
	RepliesTotal         *prometheus.CounterVec
	TransportErrorsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esibot_commands_total",
				Help: "Total number of dispatched commands by trigger and outcome",
			},
			[]string{"command", "outcome"}, // outcome: matched, unmatched, failed, empty
		),

		DispatchDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "esibot_dispatch_duration_seconds",
				Help:    "Handler execution time in seconds by trigger",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"command"},
		),

		ESIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esibot_esi_requests_total",
				Help: "Total number of outbound API requests by host and status code",
			},
			[]string{"host", "status"},
		),

		ESIRequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "esibot_esi_request_duration_seconds",
				Help:    "Outbound API request duration in seconds by host",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}, // Matches 30s timeout
			},
			[]string{"host"},
		),

		SpecRefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esibot_spec_refresh_total",
				Help: "Total number of swagger document fetches by host and status",
			},
			[]string{"host", "status"}, // status: updated, failed
		),

		SpecVersions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "esibot_spec_versions",
				Help: "Number of loaded spec versions by host",
			},
			[]string{"host"},
		),

		DedupSuppressedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esibot_dedup_suppressed_total",
				Help: "Total number of inbound events suppressed before dispatch",
			},
			[]string{"reason"}, // reason: answered, stale_edit
		),

		RepliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esibot_replies_total",
				Help: "Total number of emitted replies by outbound action",
			},
			[]string{"kind"}, // kind: text, rich, ephemeral, snippet_inline, snippet_upload, reaction
		),

		RateLimitedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esibot_rate_limited_total",
				Help: "Total number of commands dropped by a rate limiter",
			},
			[]string{"limiter"},
		),

		RateLimiterKeys: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "esibot_rate_limiter_keys",
				Help: "Number of keys with an active token bucket",
			},
			[]string{"limiter"},
		),

		TransportErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esibot_transport_errors_total",
				Help: "Total number of failed chat transport calls by operation",
			},
			[]string{"operation"},
		),
	}
}

// RecordCommand records a dispatch outcome and its duration
func (m *Metrics) RecordCommand(command, outcome string, duration float64) {
	m.CommandsTotal.WithLabelValues(command, outcome).Inc()
	m.DispatchDurationSeconds.WithLabelValues(command).Observe(duration)
}

// RecordESIRequest records an outbound API request
func (m *Metrics) RecordESIRequest(host, status string, duration float64) {
	m.ESIRequestsTotal.WithLabelValues(host, status).Inc()
	m.ESIRequestDurationSeconds.WithLabelValues(host).Observe(duration)
}

// RecordSpecRefresh records one swagger document fetch
func (m *Metrics) RecordSpecRefresh(host, status string) {
	m.SpecRefreshTotal.WithLabelValues(host, status).Inc()
}

// SetSpecVersions records how many versions are loaded for host
func (m *Metrics) SetSpecVersions(host string, n int) {
	m.SpecVersions.WithLabelValues(host).Set(float64(n))
}

// RecordDedupSuppressed records an event that was not dispatched
func (m *Metrics) RecordDedupSuppressed(reason string) {
	m.DedupSuppressedTotal.WithLabelValues(reason).Inc()
}

// RecordReply records an outbound action
func (m *Metrics) RecordReply(kind string) {
	m.RepliesTotal.WithLabelValues(kind).Inc()
}

// RecordTransportError records a failed transport call
func (m *Metrics) RecordTransportError(operation string) {
	m.TransportErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordRateLimited records a command dropped by limiter
func (m *Metrics) RecordRateLimited(limiter string) {
	m.RateLimitedTotal.WithLabelValues(limiter).Inc()
}

// SetRateLimiterKeys records how many keys limiter is tracking
func (m *Metrics) SetRateLimiterKeys(limiter string, n int) {
	m.RateLimiterKeys.WithLabelValues(limiter).Set(float64(n))
}
