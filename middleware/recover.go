package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/runbook/ledger"
)

// Recover returns middleware that recovers from panics in the handler chain.
// Panics are converted to errors and logged with a stack trace, so a
// misbehaving action marks its step failed instead of killing the run.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, inv *ledger.Invocation, next Handler) (result json.RawMessage, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("action handler panicked",
					slog.String("action", inv.ActionName),
					slog.String("workflow_id", inv.WorkflowID),
					slog.String("step", inv.StepName),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				result = nil
				retErr = fmt.Errorf("panic in action %s: %v", inv.ActionName, r)
			}
		}()
		return next(ctx)
	}
}
