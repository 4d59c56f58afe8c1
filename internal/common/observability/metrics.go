package observability

import (
	"context"
	"log"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability records question metrics through an OpenTelemetry meter
// exported to Prometheus. A zero value is usable and records nothing.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	tracer        trace.Tracer

	questionCounter  otelmetric.Int64Counter
	questionDuration otelmetric.Float64Histogram
	cacheHits        otelmetric.Int64Counter
}

// New registers the exporter with the default Prometheus registry, the one
// promhttp.Handler serves.
func New(serviceName string) *Observability {
	return NewWithRegisterer(serviceName, promclient.DefaultRegisterer)
}

func NewWithRegisterer(serviceName string, reg promclient.Registerer) *Observability {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{tracer: otel.Tracer(serviceName)}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	questionCounter, _ := meter.Int64Counter(
		"questions.processed",
		otelmetric.WithDescription("Number of questions answered, by intent and outcome"),
	)

	questionDuration, _ := meter.Float64Histogram(
		"questions.duration",
		otelmetric.WithDescription("Time to answer a question"),
		otelmetric.WithUnit("ms"),
	)

	cacheHits, _ := meter.Int64Counter(
		"questions.cache_hits",
		otelmetric.WithDescription("Answers built from cached query results"),
	)

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		tracer:           otel.Tracer(serviceName),
		questionCounter:  questionCounter,
		questionDuration: questionDuration,
		cacheHits:        cacheHits,
	}
}

// Tracer returns the tracer of the global provider, or a no-op one.
func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return otel.Tracer("rpa-assistant")
	}
	return o.tracer
}

func (o *Observability) RecordQuestion(ctx context.Context, intent, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("intent", intent),
		attribute.String("outcome", outcome),
	)
	if o.questionCounter != nil {
		o.questionCounter.Add(ctx, 1, attrs)
	}
	if o.questionDuration != nil {
		o.questionDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordCacheHit(ctx context.Context, intent string) {
	if o == nil || o.cacheHits == nil {
		return
	}
	o.cacheHits.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("intent", intent)))
}

func (o *Observability) Shutdown() {
	if o != nil && o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
