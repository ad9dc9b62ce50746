package middleware

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/runbook/ledger"
)

// tracerName is the instrumentation scope name for runbook tracing.
const tracerName = "github.com/xraph/runbook"

// Tracing returns middleware that wraps action execution in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop tracer
// is used and this middleware becomes a pass-through with zero overhead.
//
// Span attributes include: runbook.workflow.id, runbook.step, runbook.action,
// runbook.attempt, runbook.fingerprint. On error, the span status is set to
// codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, inv *ledger.Invocation, next Handler) (json.RawMessage, error) {
		ctx, span := tracer.Start(ctx, "runbook.action.execute",
			trace.WithAttributes(
				attribute.String("runbook.workflow.id", inv.WorkflowID),
				attribute.String("runbook.step", inv.StepName),
				attribute.String("runbook.action", inv.ActionName),
				attribute.Int("runbook.attempt", inv.Attempts),
				attribute.String("runbook.fingerprint", inv.Fingerprint),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		result, err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return result, err
	}
}
