package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/xraph/runbook/ledger"
)

// Timeout returns middleware that enforces an execution deadline on every
// action invocation. When the deadline is exceeded the context is cancelled
// and the handler should return context.DeadlineExceeded. A non-positive d
// disables the deadline.
//
// Per-step timeouts configured on the executor take effect inside this
// ceiling, so the tighter of the two wins.
func Timeout(logger *slog.Logger, d time.Duration) Middleware {
	return func(ctx context.Context, inv *ledger.Invocation, next Handler) (json.RawMessage, error) {
		if d > 0 {
			logger.Debug("action timeout set",
				slog.String("action", inv.ActionName),
				slog.String("step", inv.StepName),
				slog.Duration("timeout", d),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
