package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger("debug", true); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLogger("", false); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLogger("loud", false); err == nil {
		t.Error("unknown level accepted")
	}
}

func TestWithTraceAddsSpanFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "generate")
	defer span.End()

	WithTrace(ctx, log).Info("traced")
	WithTrace(context.Background(), log).Info("untraced")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("trace_id = %v", fields["trace_id"])
	}
	if _, ok := entries[1].ContextMap()["trace_id"]; ok {
		t.Error("untraced entry has a trace_id")
	}
}

func TestMetrics(t *testing.T) {
	m, err := NewMetrics()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	m.ObserveGeneration(ctx, "tee", "success", 120*time.Millisecond)
	m.ObserveGeneration(ctx, "tee", "success", 80*time.Millisecond)
	m.ObserveGeneration(ctx, "pipe", "config_error", time.Millisecond)
	m.CountDiagnostic(ctx, "no-match")
	m.CountChamfers("applied", 3)

	if got := testutil.ToFloat64(m.generations.WithLabelValues("tee", "success")); got != 2 {
		t.Errorf("tee successes = %g, want 2", got)
	}
	if got := testutil.ToFloat64(m.chamfers.WithLabelValues("applied")); got != 3 {
		t.Errorf("applied chamfers = %g, want 3", got)
	}

	path := filepath.Join(t.TempDir(), "spool.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `spool_generations_total{kind="pipe",outcome="config_error"} 1`) {
		t.Errorf("textfile missing pipe counter:\n%s", b)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveGeneration(context.Background(), "pipe", "success", time.Second)
	m.CountDiagnostic(context.Background(), "x")
	m.CountChamfers("applied", 1)
}
