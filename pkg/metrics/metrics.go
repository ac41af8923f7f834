package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the scheduler's counters. A nil *Metrics records nothing.
type Metrics struct {
	gatewayAttempts   *prometheus.CounterVec
	gatewayOutcomes   *prometheus.CounterVec
	toolCalls         *prometheus.CounterVec
	reasoningPasses   *prometheus.CounterVec
	reasoningDuration *prometheus.HistogramVec
	notifications     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		gatewayAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "gateway",
			Name:      "attempts_total",
			Help:      "Data gateway attempts by operation and failure class",
		}, []string{"op", "class"}),
		gatewayOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "gateway",
			Name:      "outcomes_total",
			Help:      "Data gateway final outcomes by operation",
		}, []string{"op", "outcome"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "Capability invocations by tool and error type",
		}, []string{"tool", "error_type"}),
		reasoningPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "reasoning",
			Name:      "passes_total",
			Help:      "Reasoning service passes by pass and outcome",
		}, []string{"pass", "outcome"}),
		reasoningDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scheduler",
			Subsystem: "reasoning",
			Name:      "duration_seconds",
			Help:      "Latency of reasoning service passes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pass"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "notify",
			Name:      "sent_total",
			Help:      "Patient notifications by channel and status",
		}, []string{"channel", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.gatewayAttempts, m.gatewayOutcomes, m.toolCalls, m.reasoningPasses, m.reasoningDuration, m.notifications)
	return m
}

func (m *Metrics) ObserveGatewayAttempt(op, class string) {
	if m == nil {
		return
	}
	m.gatewayAttempts.WithLabelValues(op, class).Inc()
}

func (m *Metrics) ObserveGatewayOutcome(op, outcome string) {
	if m == nil {
		return
	}
	m.gatewayOutcomes.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) ObserveToolCall(tool, errorType string) {
	if m == nil {
		return
	}
	if errorType == "" {
		errorType = "none"
	}
	m.toolCalls.WithLabelValues(tool, errorType).Inc()
}

func (m *Metrics) ObserveReasoningPass(pass, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.reasoningPasses.WithLabelValues(pass, outcome).Inc()
	m.reasoningDuration.WithLabelValues(pass).Observe(seconds)
}

func (m *Metrics) ObserveNotification(channel, status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, status).Inc()
}
