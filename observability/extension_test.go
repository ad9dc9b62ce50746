package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/runbook/ledger"
	"github.com/xraph/runbook/observability"
)

func setupTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("%s metric not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64] data type", name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetricsExtension_Name(t *testing.T) {
	e := observability.NewMetricsExtension()
	if e.Name() != "observability-metrics" {
		t.Errorf("name = %q", e.Name())
	}
}

func TestMetricsExtension_RunCounters(t *testing.T) {
	reader, mp := setupTestMeter()
	e := observability.NewMetricsExtensionWithMeter(mp.Meter("test"))
	ctx := context.Background()

	_ = e.OnRunStarted(ctx, "wf-1", 3)
	_ = e.OnRunStarted(ctx, "wf-2", 2)
	_ = e.OnRunResumed(ctx, "wf-1", 1)
	_ = e.OnRunCompleted(ctx, "wf-1", 2*time.Second)
	_ = e.OnRunFailed(ctx, "wf-2", errors.New("boom"))
	_ = e.OnRunCancelled(ctx, "wf-3", 1)

	rm := collectMetrics(t, reader)
	checks := map[string]int64{
		"runbook.run.started":   2,
		"runbook.run.resumed":   1,
		"runbook.run.completed": 1,
		"runbook.run.failed":    1,
		"runbook.run.cancelled": 1,
	}
	for name, want := range checks {
		if got := counterValue(t, rm, name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
}

func TestMetricsExtension_RunDuration(t *testing.T) {
	reader, mp := setupTestMeter()
	e := observability.NewMetricsExtensionWithMeter(mp.Meter("test"))

	_ = e.OnRunCompleted(context.Background(), "wf-1", 500*time.Millisecond)

	rm := collectMetrics(t, reader)
	m := findMetric(rm, "runbook.run.duration")
	if m == nil {
		t.Fatal("runbook.run.duration metric not found")
	}
	hist, ok := m.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("expected Histogram[float64] data type")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points recorded")
	}
	if hist.DataPoints[0].Sum < 0.4 || hist.DataPoints[0].Sum > 0.6 {
		t.Errorf("duration sum = %f, want ~0.5", hist.DataPoints[0].Sum)
	}
}

func TestMetricsExtension_StepCounters(t *testing.T) {
	reader, mp := setupTestMeter()
	e := observability.NewMetricsExtensionWithMeter(mp.Meter("test"))
	ctx := context.Background()

	inv := &ledger.Invocation{WorkflowID: "wf-1", StepName: "apply_fix", ActionName: "restart_pod"}

	_ = e.OnStepCompleted(ctx, "wf-1", "analyze_logs", time.Second)
	_ = e.OnStepSkipped(ctx, inv)
	_ = e.OnStepSkipped(ctx, inv)
	_ = e.OnStepFailed(ctx, "wf-1", "verify_fix", errors.New("still down"))

	rm := collectMetrics(t, reader)
	if got := counterValue(t, rm, "runbook.step.completed"); got != 1 {
		t.Errorf("step.completed = %d, want 1", got)
	}
	if got := counterValue(t, rm, "runbook.step.skipped"); got != 2 {
		t.Errorf("step.skipped = %d, want 2", got)
	}
	if got := counterValue(t, rm, "runbook.step.failed"); got != 1 {
		t.Errorf("step.failed = %d, want 1", got)
	}
}

func TestMetricsExtension_StepAttributes(t *testing.T) {
	reader, mp := setupTestMeter()
	e := observability.NewMetricsExtensionWithMeter(mp.Meter("test"))

	_ = e.OnStepCompleted(context.Background(), "wf-1", "apply_fix", time.Second)

	rm := collectMetrics(t, reader)
	m := findMetric(rm, "runbook.step.completed")
	if m == nil {
		t.Fatal("runbook.step.completed metric not found")
	}
	sum := m.Data.(metricdata.Sum[int64])
	found := false
	for _, attr := range sum.DataPoints[0].Attributes.ToSlice() {
		if string(attr.Key) == "step" && attr.Value.AsString() == "apply_fix" {
			found = true
		}
	}
	if !found {
		t.Error("expected step=apply_fix attribute")
	}
}

func TestMetricsExtension_DefaultNoopSafe(t *testing.T) {
	// Without a global MeterProvider the instruments are noops and the
	// hooks must not panic.
	e := observability.NewMetricsExtension()
	ctx := context.Background()
	if err := e.OnRunStarted(ctx, "wf-1", 1); err != nil {
		t.Fatalf("OnRunStarted: %v", err)
	}
	if err := e.OnStepFailed(ctx, "wf-1", "s", errors.New("x")); err != nil {
		t.Fatalf("OnStepFailed: %v", err)
	}
}
