// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnDuration tracks end-to-end duration of a qualification turn.
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "turn_duration_seconds",
			Help:    "Qualification turn duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model", "status"},
	)

	// TurnSteps tracks how many generation steps a turn needed.
	TurnSteps = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "turn_generation_steps",
			Help:    "Generation steps per qualification turn",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// ToolExecutionsTotal tracks tool executions by outcome.
	ToolExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_executions_total",
			Help: "Total tool executions",
		},
		[]string{"tool", "status"},
	)

	// QualificationsTotal tracks submitted qualification records by outcome.
	QualificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualifications_total",
			Help: "Total qualification records produced",
		},
		[]string{"next_step"},
	)

	// LeadsPublishedTotal tracks lead records published to the outbox.
	LeadsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_published_total",
			Help: "Qualified lead records published to JetStream",
		},
		[]string{"status"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// SessionsActive tracks live sessions held in memory.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of sessions held in memory",
		},
	)

	// MessagesTotal tracks total messages appended to histories.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages appended",
		},
		[]string{"role"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTurn records metrics for a completed qualification turn.
func RecordTurn(model, status string, duration float64, steps, tokensIn, tokensOut int) {
	TurnDuration.WithLabelValues(model, status).Observe(duration)
	TurnSteps.Observe(float64(steps))
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordToolExecution records a single tool execution.
func RecordToolExecution(tool, status string) {
	ToolExecutionsTotal.WithLabelValues(tool, status).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
