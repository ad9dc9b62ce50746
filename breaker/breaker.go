// Package breaker provides a sliding-window circuit breaker that halts
// automated remediation when too many recent runs fail. It protects the
// infrastructure from runaway automation: a workflow that keeps failing
// stops being retried until an operator (or the reset timeout) intervenes.
package breaker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/runbook"
)

// Config tunes the breaker. Zero values fall back to defaults.
type Config struct {
	// FailureThreshold is the failure rate above which the breaker opens,
	// evaluated only once the window is full. Default 0.30.
	FailureThreshold float64

	// WindowSize is how many recent outcomes the sliding window tracks.
	// Default 10.
	WindowSize int

	// ResetAfter is how long the breaker stays open before it closes again
	// and clears its window. Default 15 minutes.
	ResetAfter time.Duration

	// Logger receives state-transition logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Breaker is a sliding-window circuit breaker. It is safe for concurrent use.
type Breaker struct {
	mu       sync.Mutex
	cfg      Config
	results  []bool
	open     bool
	openedAt time.Time
}

// New creates a Breaker, applying defaults for zero config fields.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 0.30
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	if cfg.ResetAfter <= 0 {
		cfg.ResetAfter = 15 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Breaker{cfg: cfg}
}

// Allow reports whether a new run may start. It returns nil when the
// breaker is closed, and runbook.ErrBreakerOpen while it is open. An open
// breaker closes again once ResetAfter has elapsed, clearing its window so
// one post-reset failure cannot immediately re-open it.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return nil
	}
	if time.Since(b.openedAt) >= b.cfg.ResetAfter {
		b.cfg.Logger.Info("breaker: reset timeout elapsed, closing",
			slog.Duration("reset_after", b.cfg.ResetAfter),
		)
		b.open = false
		b.results = nil
		return nil
	}
	return runbook.ErrBreakerOpen
}

// Record adds a run outcome to the sliding window. Once the window is full,
// a failure rate above FailureThreshold opens the breaker.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.results = append(b.results, success)
	if len(b.results) > b.cfg.WindowSize {
		b.results = b.results[1:]
	}

	if b.open || len(b.results) < b.cfg.WindowSize {
		return
	}

	if rate := b.failureRateLocked(); rate > b.cfg.FailureThreshold {
		b.open = true
		b.openedAt = time.Now()
		b.cfg.Logger.Warn("breaker: opening, automation halted",
			slog.Float64("failure_rate", rate),
			slog.Float64("threshold", b.cfg.FailureThreshold),
			slog.Int("window", b.cfg.WindowSize),
		)
	}
}

// State is a point-in-time snapshot for introspection.
type State struct {
	Open        bool
	FailureRate float64
	Window      int
	OpenedAt    time.Time
}

// Snapshot returns the breaker's current state.
func (b *Breaker) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{
		Open:        b.open,
		FailureRate: b.failureRateLocked(),
		Window:      len(b.results),
		OpenedAt:    b.openedAt,
	}
}

func (b *Breaker) failureRateLocked() float64 {
	if len(b.results) == 0 {
		return 0
	}
	failures := 0
	for _, ok := range b.results {
		if !ok {
			failures++
		}
	}
	return float64(failures) / float64(len(b.results))
}
