package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecording(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordHTTPRequest("POST", "/chat", "200", 25*time.Millisecond)
	m.RecordExchange("claude-test", "success", time.Second, 100, 50)
	m.RecordToolExecution("get_assignment_id", "success", time.Millisecond)
	m.SetActiveSessions(3)

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/chat", "200")); got != 1 {
		t.Errorf("http requests counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ExchangesTotal.WithLabelValues("claude-test", "success")); got != 1 {
		t.Errorf("exchanges counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TokensUsed.WithLabelValues("claude-test", "input")); got != 100 {
		t.Errorf("input tokens = %v, want 100", got)
	}
	if got := testutil.ToFloat64(m.TokensUsed.WithLabelValues("claude-test", "output")); got != 50 {
		t.Errorf("output tokens = %v, want 50", got)
	}
	if got := testutil.ToFloat64(m.ToolExecutionsTotal.WithLabelValues("get_assignment_id", "success")); got != 1 {
		t.Errorf("tool executions counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ActiveSessions); got != 3 {
		t.Errorf("active sessions gauge = %v, want 3", got)
	}
}

func TestSeparateRegistries(t *testing.T) {
	t.Parallel()

	// Two metric sets on distinct registries must not collide.
	a := NewMetrics(prometheus.NewRegistry())
	b := NewMetrics(prometheus.NewRegistry())
	a.SetActiveSessions(1)
	b.SetActiveSessions(2)

	if got := testutil.ToFloat64(a.ActiveSessions); got != 1 {
		t.Errorf("registry a gauge = %v", got)
	}
	if got := testutil.ToFloat64(b.ActiveSessions); got != 2 {
		t.Errorf("registry b gauge = %v", got)
	}
}

func TestNoopTracerIsSafe(t *testing.T) {
	t.Parallel()

	tracer := NoopTracer()
	ctx, span := tracer.TraceChatRequest(context.Background(), "sess-1", true)
	tracer.SetAttributes(span, "key", "value", "count", 2)
	tracer.AddEvent(span, "tool_use", "tool", "get_assignment_id")
	tracer.RecordError(span, nil)
	span.End()

	_, toolSpan := tracer.TraceToolExecution(ctx, "get_assignment_id")
	toolSpan.End()
}
