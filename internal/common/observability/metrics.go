// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// Stage names recorded for the survey pipeline.
const (
	StageLoad     = "load"
	StageSanitize = "sanitize"
	StagePrefill  = "prefill"
	StageAssemble = "assemble"
	StageSave     = "save"
	StageCapture  = "capture"
)

// Observability records pipeline stage timings through an OpenTelemetry meter
// exported on the Prometheus registry.
type Observability struct {
	meterProvider *metric.MeterProvider
	stageCounter  otelmetric.Int64Counter
	stageDuration otelmetric.Float64Histogram
}

// New registers the exporter. On failure it returns a recorder that drops
// every measurement.
func New(serviceName string, log *zap.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", zap.Error(err))
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	stageCounter, _ := meter.Int64Counter(
		"survey.stage.processed",
		otelmetric.WithDescription("Survey pipeline stage executions"),
	)
	stageDuration, _ := meter.Float64Histogram(
		"survey.stage.duration",
		otelmetric.WithDescription("Survey pipeline stage duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		stageCounter:  stageCounter,
		stageDuration: stageDuration,
	}
}

// NewNoop returns a recorder that drops every measurement.
func NewNoop() *Observability {
	return &Observability{}
}

// RecordStage counts one execution of stage and records its duration.
func (o *Observability) RecordStage(ctx context.Context, stage string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	)
	if o.stageCounter != nil {
		o.stageCounter.Add(ctx, 1, attrs)
	}
	if o.stageDuration != nil {
		o.stageDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
}

// Track returns a func that records stage when called with the stage error.
//
//	done := obs.Track(ctx, observability.StageSave)
//	err := save()
//	done(err)
func (o *Observability) Track(ctx context.Context, stage string) func(error) {
	start := time.Now()
	return func(err error) {
		o.RecordStage(ctx, stage, time.Since(start), err)
	}
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
