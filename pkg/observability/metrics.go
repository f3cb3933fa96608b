package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics installs an OTLP/HTTP meter provider configured from the
// environment and returns its shutdown function.
func InitMetrics(ctx context.Context) (func(context.Context) error, error) {
	exporter, err := otlpmetrichttp.New(ctx)
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter),
		),
	)
	otel.SetMeterProvider(provider)
	return provider.Shutdown, nil
}

// Metrics counts generation outcomes. Every observation goes to a private
// Prometheus registry, which batch runs dump as a textfile, and to the
// global OTel meter.
type Metrics struct {
	Registry *prometheus.Registry

	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	diagnostics *prometheus.CounterVec
	chamfers    *prometheus.CounterVec

	genCounter  metric.Int64Counter
	genDuration metric.Float64Histogram
	diagCounter metric.Int64Counter
}

// NewMetrics registers the generation collectors and instruments.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spool",
			Name:      "generations_total",
			Help:      "Fitting generations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spool",
			Name:      "generation_duration_seconds",
			Help:      "Wall time of one fitting generation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spool",
			Name:      "diagnostics_total",
			Help:      "Diagnostics reported during generation by code.",
		}, []string{"code"}),
		chamfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spool",
			Name:      "chamfers_total",
			Help:      "Weld bevels by outcome.",
		}, []string{"outcome"}),
	}
	for _, c := range []prometheus.Collector{m.generations, m.duration, m.diagnostics, m.chamfers} {
		if err := m.Registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	meter := otel.Meter("spool")
	var err error
	m.genCounter, err = meter.Int64Counter("spool.generations.total",
		metric.WithDescription("Total number of fitting generations"),
		metric.WithUnit("{generation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating generation counter: %w", err)
	}
	m.genDuration, err = meter.Float64Histogram("spool.generation.duration",
		metric.WithDescription("Duration of fitting generations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating generation histogram: %w", err)
	}
	m.diagCounter, err = meter.Int64Counter("spool.diagnostics.total",
		metric.WithDescription("Total number of generation diagnostics"),
		metric.WithUnit("{diagnostic}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating diagnostic counter: %w", err)
	}
	return m, nil
}

// ObserveGeneration records one finished generation.
func (m *Metrics) ObserveGeneration(ctx context.Context, kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(kind, outcome).Inc()
	m.duration.WithLabelValues(kind).Observe(d.Seconds())
	attrs := metric.WithAttributes(attribute.String("kind", kind), attribute.String("outcome", outcome))
	m.genCounter.Add(ctx, 1, attrs)
	m.genDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("kind", kind)))
}

// CountDiagnostic records one diagnostic by code.
func (m *Metrics) CountDiagnostic(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.diagnostics.WithLabelValues(code).Inc()
	m.diagCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// CountChamfers records n bevels with the given outcome ("applied" or
// "failed").
func (m *Metrics) CountChamfers(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.chamfers.WithLabelValues(outcome).Add(float64(n))
}

// WriteTextfile dumps the registry in the Prometheus text format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
