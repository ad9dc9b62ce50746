// Package middleware provides composable middleware for action execution.
// Middleware wraps action invocations synchronously and can modify execution
// (recover from panics, log, add tracing, rate-limit, etc.).
package middleware

import (
	"context"
	"encoding/json"

	"github.com/xraph/runbook/ledger"
)

// Handler is the terminal function that invokes the action.
type Handler func(ctx context.Context) (json.RawMessage, error)

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the invocation being executed, and the
// next handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
//
// Middleware runs only when the action actually executes; ledger replays
// bypass the chain entirely.
type Middleware func(ctx context.Context, inv *ledger.Invocation, next Handler) (json.RawMessage, error)

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, tracing) executes as:
//
//	logging → recover → tracing → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, inv *ledger.Invocation, next Handler) (json.RawMessage, error) {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) (json.RawMessage, error) {
				return mw(ctx, inv, prev)
			}
		}
		return h(ctx)
	}
}
