package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/runbook/hook"
	"github.com/xraph/runbook/ledger"
)

// meterName is the instrumentation scope name for runbook metrics.
const meterName = "github.com/xraph/runbook/observability"

// Compile-time interface checks.
var (
	_ hook.Extension     = (*MetricsExtension)(nil)
	_ hook.RunStarted    = (*MetricsExtension)(nil)
	_ hook.RunResumed    = (*MetricsExtension)(nil)
	_ hook.RunCompleted  = (*MetricsExtension)(nil)
	_ hook.RunFailed     = (*MetricsExtension)(nil)
	_ hook.RunCancelled  = (*MetricsExtension)(nil)
	_ hook.StepCompleted = (*MetricsExtension)(nil)
	_ hook.StepSkipped   = (*MetricsExtension)(nil)
	_ hook.StepFailed    = (*MetricsExtension)(nil)
)

// MetricsExtension records run and step lifecycle metrics via OpenTelemetry.
// Register it on an executor to automatically track run outcomes, resume
// counts, replay rates, and run/step durations.
type MetricsExtension struct {
	runStarted    metric.Int64Counter
	runResumed    metric.Int64Counter
	runCompleted  metric.Int64Counter
	runFailed     metric.Int64Counter
	runCancelled  metric.Int64Counter
	stepCompleted metric.Int64Counter
	stepSkipped   metric.Int64Counter
	stepFailed    metric.Int64Counter
	runDuration   metric.Float64Histogram
	stepDuration  metric.Float64Histogram
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. If no MeterProvider is configured, noop instruments are
// used and every hook becomes a pass-through.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter. This variant allows injecting a specific MeterProvider for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	// Instruments are created once at construction time. On error the OTel
	// API returns noop instruments, so the error can be ignored.
	counter := func(name, desc string) metric.Int64Counter {
		c, _ := meter.Int64Counter(name, metric.WithDescription(desc))
		return c
	}
	histogram := func(name, desc string) metric.Float64Histogram {
		h, _ := meter.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
		)
		return h
	}

	return &MetricsExtension{
		runStarted:    counter("runbook.run.started", "Total workflow runs started fresh"),
		runResumed:    counter("runbook.run.resumed", "Total workflow runs resumed from a checkpoint"),
		runCompleted:  counter("runbook.run.completed", "Total workflow runs completed"),
		runFailed:     counter("runbook.run.failed", "Total workflow runs stopped by a step failure"),
		runCancelled:  counter("runbook.run.cancelled", "Total workflow runs cancelled at a step boundary"),
		stepCompleted: counter("runbook.step.completed", "Total steps whose action executed successfully"),
		stepSkipped:   counter("runbook.step.skipped", "Total steps replayed from the ledger"),
		stepFailed:    counter("runbook.step.failed", "Total steps whose action failed"),
		runDuration:   histogram("runbook.run.duration", "Wall-clock time of completed runs in seconds"),
		stepDuration:  histogram("runbook.step.duration", "Wall-clock time of executed steps in seconds"),
	}
}

// Name implements hook.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Run lifecycle hooks ─────────────────────────────

// OnRunStarted implements hook.RunStarted.
func (m *MetricsExtension) OnRunStarted(ctx context.Context, _ string, _ int) error {
	m.runStarted.Add(ctx, 1)
	return nil
}

// OnRunResumed implements hook.RunResumed.
func (m *MetricsExtension) OnRunResumed(ctx context.Context, _ string, _ int) error {
	m.runResumed.Add(ctx, 1)
	return nil
}

// OnRunCompleted implements hook.RunCompleted.
func (m *MetricsExtension) OnRunCompleted(ctx context.Context, _ string, elapsed time.Duration) error {
	m.runCompleted.Add(ctx, 1)
	m.runDuration.Record(ctx, elapsed.Seconds())
	return nil
}

// OnRunFailed implements hook.RunFailed.
func (m *MetricsExtension) OnRunFailed(ctx context.Context, _ string, _ error) error {
	m.runFailed.Add(ctx, 1)
	return nil
}

// OnRunCancelled implements hook.RunCancelled.
func (m *MetricsExtension) OnRunCancelled(ctx context.Context, _ string, _ int) error {
	m.runCancelled.Add(ctx, 1)
	return nil
}

// ── Step lifecycle hooks ────────────────────────────

// OnStepCompleted implements hook.StepCompleted.
func (m *MetricsExtension) OnStepCompleted(ctx context.Context, _, stepName string, elapsed time.Duration) error {
	attrs := metric.WithAttributes(attribute.String("step", stepName))
	m.stepCompleted.Add(ctx, 1, attrs)
	m.stepDuration.Record(ctx, elapsed.Seconds(), attrs)
	return nil
}

// OnStepSkipped implements hook.StepSkipped.
func (m *MetricsExtension) OnStepSkipped(ctx context.Context, inv *ledger.Invocation) error {
	m.stepSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", inv.StepName),
		attribute.String("action", inv.ActionName),
	))
	return nil
}

// OnStepFailed implements hook.StepFailed.
func (m *MetricsExtension) OnStepFailed(ctx context.Context, _, stepName string, _ error) error {
	m.stepFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", stepName),
	))
	return nil
}
