// Package observability provides OpenTelemetry tracing and metrics,
// dispatch counters, and an append-only audit log for the dispatcher.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/victoralfred/goshell/dispatch"
)

// TelemetryConfig names the service and selects which signals it emits.
type TelemetryConfig struct {
	// ServiceName labels the tracer and meter.
	ServiceName string

	// ServiceVersion tags emitted telemetry with a release.
	ServiceVersion string

	// Environment distinguishes deployments sharing a collector.
	Environment string

	// EnableTracing turns span creation on.
	EnableTracing bool

	// EnableMetrics turns instrument recording on.
	EnableMetrics bool

	// MetricsPrefix namespaces every instrument this package creates.
	MetricsPrefix string
}

// DefaultTelemetryConfig enables both signals under the goshell name.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		ServiceName:    "goshell",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		EnableTracing:  true,
		EnableMetrics:  true,
		MetricsPrefix:  "goshell_",
	}
}

// Telemetry traces and measures dispatches through OpenTelemetry. It
// satisfies dispatch.Telemetry.
type Telemetry struct {
	config TelemetryConfig
	tracer trace.Tracer
	meter  metric.Meter

	dispatches metric.Int64Counter
	durations  metric.Float64Histogram
	refusals   metric.Int64Counter
	inFlight   metric.Int64UpDownCounter
}

var _ dispatch.Telemetry = (*Telemetry)(nil)

// NewTelemetry creates a telemetry instance on the global OpenTelemetry
// providers.
func NewTelemetry(config TelemetryConfig) (*Telemetry, error) {
	t := &Telemetry{
		config: config,
		tracer: otel.Tracer(config.ServiceName),
		meter:  otel.Meter(config.ServiceName),
	}

	var err error

	t.dispatches, err = t.meter.Int64Counter(
		config.MetricsPrefix+"dispatches_total",
		metric.WithDescription("Total number of dispatched command lines"),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatches_total: %w", err)
	}

	t.durations, err = t.meter.Float64Histogram(
		config.MetricsPrefix+"dispatch_duration_seconds",
		metric.WithDescription("Wall clock duration of executed command lines"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch_duration_seconds: %w", err)
	}

	t.refusals, err = t.meter.Int64Counter(
		config.MetricsPrefix+"refusals_total",
		metric.WithDescription("Total number of dispatches refused before execution"),
	)
	if err != nil {
		return nil, fmt.Errorf("refusals_total: %w", err)
	}

	t.inFlight, err = t.meter.Int64UpDownCounter(
		config.MetricsPrefix+"active_dispatches",
		metric.WithDescription("Number of dispatches currently in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("active_dispatches: %w", err)
	}

	return t, nil
}

// StartSpan starts a trace span around a dispatch and marks it in
// flight until the returned func runs.
func (t *Telemetry) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func()) {
	settle := func() {}
	if t.config.EnableMetrics {
		t.inFlight.Add(ctx, 1)
		settle = func() {
			t.inFlight.Add(context.Background(), -1)
		}
	}

	if !t.config.EnableTracing {
		return ctx, settle
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithAttributes(stringAttributes(attrs)...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, func() {
		span.End()
		settle()
	}
}

// RecordDispatch records a settled dispatch with its outcome label.
func (t *Telemetry) RecordDispatch(op, program, status string, seconds float64) {
	if !t.config.EnableMetrics {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("program", program),
		attribute.String("status", status),
	)
	t.dispatches.Add(context.Background(), 1, attrs)
	t.durations.Record(context.Background(), seconds, attrs)
}

// RecordRefusal records a dispatch refused before execution.
func (t *Telemetry) RecordRefusal(op, program, reason string) {
	if !t.config.EnableMetrics {
		return
	}

	t.refusals.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("program", program),
		attribute.String("reason", reason),
	))
}

// stringAttributes converts a string map to OTEL attributes.
func stringAttributes(attrs map[string]string) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	return kvs
}

// NoopTelemetry returns a telemetry implementation that records nothing.
func NoopTelemetry() dispatch.Telemetry {
	return &noopTelemetry{}
}

type noopTelemetry struct{}

func (t *noopTelemetry) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func()) {
	return ctx, func() {}
}

func (t *noopTelemetry) RecordDispatch(op, program, status string, seconds float64) {}
func (t *noopTelemetry) RecordRefusal(op, program, reason string)                   {}
