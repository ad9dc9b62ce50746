// Package retry drives repeated workflow attempts from the caller's side.
// A crashed or failed run is simply invoked again: the ledger and
// checkpoint layers make re-invocation safe, so the supervisor needs no
// knowledge of how far the previous attempt got.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/runbook/backoff"
)

// Policy controls how many times a run is attempted and how long to wait
// between attempts.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// Strategy computes the delay before each re-attempt. Defaults to
	// backoff.DefaultStrategy().
	Strategy backoff.Strategy

	// Logger receives per-attempt logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Do invokes fn until it succeeds, the policy is exhausted, or ctx is done.
// The delay before re-attempt n comes from Strategy.Delay(n). Context
// cancellation during a delay or an attempt stops immediately with the
// context error.
//
// fn is expected to be an Executor.Run call or equivalent: something whose
// completed work survives across invocations.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	strategy := p.Strategy
	if strategy == nil {
		strategy = backoff.DefaultStrategy()
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt == attempts {
			break
		}

		delay := strategy.Delay(attempt)
		logger.Warn("retry: attempt failed, backing off",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", delay),
			slog.String("error", lastErr.Error()),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("retry: %d attempts exhausted: %w", attempts, lastErr)
}
