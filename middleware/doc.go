// Package middleware provides composable middleware for action execution.
//
// A [Middleware] is a function that wraps an action handler. Middleware are
// composed into a chain using [Chain] and applied each time an action
// actually executes — ledger replays bypass the chain. They are applied
// right-to-left: the first middleware in the slice is the outermost wrapper.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs action, step, duration, and outcome at each execution
//   - [Recover] — catches panics and converts them to errors
//   - [Timeout] — cancels the action context after a configured duration
//   - [Tracing] — wraps execution in an OpenTelemetry span
//   - [Metrics] — records per-action duration and outcome counters
//   - [RateLimit] — throttles action execution with a shared token bucket
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, inv *ledger.Invocation, next middleware.Handler) (json.RawMessage, error) {
//	        // pre-processing
//	        result, err := next(ctx)
//	        // post-processing
//	        return result, err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting (e.g., rate limiting on a cancelled context).
package middleware
