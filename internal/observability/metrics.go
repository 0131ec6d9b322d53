package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the gateway.
//
// Covered areas:
//   - HTTP requests (count, duration by route and status)
//   - Agent exchanges (count, duration, token usage)
//   - Tool executions (count, duration, errors)
//   - Tracked sessions (gauge)
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ExchangesTotal   *prometheus.CounterVec
	ExchangeDuration *prometheus.HistogramVec
	TokensUsed       *prometheus.CounterVec

	ToolExecutionsTotal   *prometheus.CounterVec
	ToolExecutionDuration *prometheus.HistogramVec

	ActiveSessions prometheus.Gauge
}

// NewMetrics creates and registers the gateway metric collectors.
// If reg is nil, the default Prometheus registerer is used. Tests pass
// their own prometheus.NewRegistry() to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hragent_http_requests_total",
				Help: "Total HTTP requests by method, route, and status code",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hragent_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 30, 60},
			},
			[]string{"method", "route"},
		),
		ExchangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hragent_exchanges_total",
				Help: "Total agent exchanges by model and status (success, error)",
			},
			[]string{"model", "status"},
		),
		ExchangeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hragent_exchange_duration_seconds",
				Help:    "Agent exchange duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"model"},
		),
		TokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hragent_tokens_total",
				Help: "Total tokens consumed by model and direction (input, output)",
			},
			[]string{"model", "direction"},
		),
		ToolExecutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hragent_tool_executions_total",
				Help: "Total tool executions by tool name and status (success, error)",
			},
			[]string{"tool", "status"},
		),
		ToolExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hragent_tool_execution_duration_seconds",
				Help:    "Tool execution duration in seconds",
				Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5},
			},
			[]string{"tool"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hragent_active_sessions",
				Help: "Number of conversations currently tracked in the registry",
			},
		),
	}
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordExchange records a completed agent exchange.
func (m *Metrics) RecordExchange(model, status string, duration time.Duration, inputTokens, outputTokens int64) {
	m.ExchangesTotal.WithLabelValues(model, status).Inc()
	m.ExchangeDuration.WithLabelValues(model).Observe(duration.Seconds())
	if inputTokens > 0 {
		m.TokensUsed.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.TokensUsed.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

// RecordToolExecution records a completed tool execution.
func (m *Metrics) RecordToolExecution(tool, status string, duration time.Duration) {
	m.ToolExecutionsTotal.WithLabelValues(tool, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// SetActiveSessions updates the tracked session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}
