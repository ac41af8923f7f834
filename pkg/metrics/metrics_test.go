package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveGatewayAttempt(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveGatewayAttempt("store.get_provider", "transient")
	m.ObserveGatewayAttempt("store.get_provider", "transient")
	m.ObserveGatewayOutcome("store.get_provider", "unavailable")

	if got := testutil.ToFloat64(m.gatewayAttempts.WithLabelValues("store.get_provider", "transient")); got != 2 {
		t.Fatalf("attempts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.gatewayOutcomes.WithLabelValues("store.get_provider", "unavailable")); got != 1 {
		t.Fatalf("outcomes = %v, want 1", got)
	}
}

func TestObserveToolCallDefaultsErrorType(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.ObserveToolCall("create_booking", "")

	if got := testutil.ToFloat64(m.toolCalls.WithLabelValues("create_booking", "none")); got != 1 {
		t.Fatalf("tool calls = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveGatewayAttempt("op", "ok")
	m.ObserveGatewayOutcome("op", "success")
	m.ObserveToolCall("tool", "NotFound")
	m.ObserveReasoningPass("plan", "ok", 0.1)
	m.ObserveNotification("twilio", "sent")
}
