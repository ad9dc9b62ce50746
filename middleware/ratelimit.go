package middleware

import (
	"context"
	"encoding/json"

	"golang.org/x/time/rate"

	"github.com/xraph/runbook/ledger"
)

// RateLimit returns middleware that throttles action execution with the
// given limiter. It blocks until a token is available or the context is
// cancelled, which keeps a fast-replaying resume from hammering the
// infrastructure APIs the actions call.
//
// The limiter is shared across every invocation that flows through this
// middleware instance, so one limiter bounds a whole executor.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(ctx context.Context, inv *ledger.Invocation, next Handler) (json.RawMessage, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return next(ctx)
	}
}
