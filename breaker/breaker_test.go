package breaker_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/breaker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBreaker_StaysClosedBelowThreshold(t *testing.T) {
	b := breaker.New(breaker.Config{
		FailureThreshold: 0.30,
		WindowSize:       10,
		Logger:           testLogger(),
	})

	// 3 failures out of 10 is exactly 30%, not above it.
	for i := 0; i < 7; i++ {
		b.Record(true)
	}
	for i := 0; i < 3; i++ {
		b.Record(false)
	}

	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want nil at threshold", err)
	}
}

func TestBreaker_OpensAboveThreshold(t *testing.T) {
	b := breaker.New(breaker.Config{
		FailureThreshold: 0.30,
		WindowSize:       10,
		Logger:           testLogger(),
	})

	for i := 0; i < 6; i++ {
		b.Record(true)
	}
	for i := 0; i < 4; i++ {
		b.Record(false)
	}

	if err := b.Allow(); !errors.Is(err, runbook.ErrBreakerOpen) {
		t.Fatalf("Allow() = %v, want ErrBreakerOpen", err)
	}
	if s := b.Snapshot(); !s.Open {
		t.Error("snapshot reports closed after opening")
	}
}

func TestBreaker_NoOpinionUntilWindowFull(t *testing.T) {
	b := breaker.New(breaker.Config{
		FailureThreshold: 0.30,
		WindowSize:       10,
		Logger:           testLogger(),
	})

	// 100% failures, but only 5 samples.
	for i := 0; i < 5; i++ {
		b.Record(false)
	}

	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want nil with a partial window", err)
	}
}

func TestBreaker_WindowSlides(t *testing.T) {
	b := breaker.New(breaker.Config{
		FailureThreshold: 0.30,
		WindowSize:       4,
		Logger:           testLogger(),
	})

	// Old failures scroll out of the window before it fills with successes.
	b.Record(false)
	b.Record(false)
	for i := 0; i < 6; i++ {
		b.Record(true)
	}

	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want nil after failures aged out", err)
	}
}

func TestBreaker_ClosesAfterResetTimeout(t *testing.T) {
	b := breaker.New(breaker.Config{
		FailureThreshold: 0.30,
		WindowSize:       2,
		ResetAfter:       10 * time.Millisecond,
		Logger:           testLogger(),
	})

	b.Record(false)
	b.Record(false)
	if err := b.Allow(); !errors.Is(err, runbook.ErrBreakerOpen) {
		t.Fatalf("Allow() = %v, want ErrBreakerOpen", err)
	}

	time.Sleep(20 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want nil after reset timeout", err)
	}

	// Window was cleared: a single failure must not re-open immediately.
	b.Record(false)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want nil with a fresh partial window", err)
	}
}

func TestBreaker_Defaults(t *testing.T) {
	b := breaker.New(breaker.Config{Logger: testLogger()})
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want nil on a fresh breaker", err)
	}
}
