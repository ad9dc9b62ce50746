package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/xraph/runbook/ledger"
)

// Logging returns middleware that logs action start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, inv *ledger.Invocation, next Handler) (json.RawMessage, error) {
		logger.Info("action started",
			slog.String("action", inv.ActionName),
			slog.String("workflow_id", inv.WorkflowID),
			slog.String("step", inv.StepName),
			slog.Int("attempt", inv.Attempts),
		)

		start := time.Now()
		result, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("action failed",
				slog.String("action", inv.ActionName),
				slog.String("workflow_id", inv.WorkflowID),
				slog.String("step", inv.StepName),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("action completed",
				slog.String("action", inv.ActionName),
				slog.String("workflow_id", inv.WorkflowID),
				slog.String("step", inv.StepName),
				slog.Duration("elapsed", elapsed),
			)
		}

		return result, err
	}
}
