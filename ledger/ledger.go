package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/id"
)

// ReplayEmitter is notified when GetOrExecute returns a cached result
// instead of invoking the action — the observable "cache hit" signal for
// audit trails. Satisfied by hook.Registry via an adapter in the executor
// package to break the import cycle between ledger and hook.
type ReplayEmitter interface {
	EmitInvocationReplayed(ctx context.Context, inv *Invocation)
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the structured logger for the ledger.
func WithLogger(l *slog.Logger) Option {
	return func(lg *Ledger) { lg.logger = l }
}

// WithEmitter sets the replay emitter notified on cache hits.
func WithEmitter(e ReplayEmitter) Option {
	return func(lg *Ledger) { lg.emitter = e }
}

// Ledger guarantees at-most-once effective execution of action invocations.
// Before an action runs, its record is durably marked pending; after it
// succeeds, the result is durably cached under the fingerprint and every
// later call with that fingerprint returns the cached result without
// invoking the action again.
type Ledger struct {
	store   Store
	logger  *slog.Logger
	emitter ReplayEmitter
}

// New creates a Ledger over the given store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GetOrExecute returns the cached result for inv.Fingerprint if a completed
// record exists, without invoking fn. Otherwise it durably marks the record
// pending, invokes fn, and:
//
//   - on success, durably stores status=completed with the result before
//     returning it, so a crash after the write still leaves the ledger
//     correct;
//   - on failure, stores status=failed with the error detail and propagates
//     the failure; a later call with the same fingerprint attempts again.
//
// A store lookup failure is fatal for the attempt and surfaces as a
// *runbook.PersistenceError — never as a false "not yet done".
//
// The pending write is deliberately ordered before the action: if the
// process dies between the action's external effect and the completed
// write, resume re-runs the action. That is why registered actions must be
// idempotent at the infrastructure layer (see action.Definition).
func (l *Ledger) GetOrExecute(ctx context.Context, inv *Invocation, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	existing, err := l.store.GetInvocation(ctx, inv.Fingerprint)
	switch {
	case err == nil:
		if existing.Status == StatusCompleted {
			l.logger.Debug("ledger: returning cached result",
				slog.String("fingerprint", inv.Fingerprint),
				slog.String("workflow_id", existing.WorkflowID),
				slog.String("step", existing.StepName),
			)
			if l.emitter != nil {
				l.emitter.EmitInvocationReplayed(ctx, existing)
			}
			return existing.Result, nil
		}
		// Pending or failed: carry the record forward and try again.
		// Pending here can only be a crash artifact, because callers
		// hold the per-workflow lease while executing.
		inv.ID = existing.ID
		inv.Entity = existing.Entity
		inv.Attempts = existing.Attempts
	case errors.Is(err, runbook.ErrInvocationNotFound):
		inv.ID = id.NewInvocationID()
		inv.Entity = runbook.NewEntity()
	default:
		return nil, &runbook.PersistenceError{Op: "ledger.get", Err: err}
	}

	// Durable intent write before the action runs.
	inv.Status = StatusPending
	inv.Attempts++
	inv.Result = nil
	inv.Error = ""
	inv.CompletedAt = nil
	inv.Touch()
	if putErr := l.store.PutInvocation(ctx, inv); putErr != nil {
		return nil, &runbook.PersistenceError{Op: "ledger.put", Err: putErr}
	}

	result, execErr := fn(ctx)
	if execErr != nil {
		inv.Status = StatusFailed
		inv.Error = execErr.Error()
		inv.Touch()
		if putErr := l.store.PutInvocation(ctx, inv); putErr != nil {
			// The action error is what the caller must see; the failed
			// marker is best-effort since a pending record retries anyway.
			l.logger.Warn("ledger: failed to record failed invocation",
				slog.String("fingerprint", inv.Fingerprint),
				slog.String("error", putErr.Error()),
			)
		}
		return nil, fmt.Errorf("ledger: action %s: %w", inv.ActionName, execErr)
	}

	now := time.Now().UTC()
	inv.Status = StatusCompleted
	inv.Result = result
	inv.CompletedAt = &now
	inv.Touch()
	if putErr := l.store.PutInvocation(ctx, inv); putErr != nil {
		// The action took effect but the completion is not durable: this
		// must surface as a persistence failure, not success, or a resume
		// could legitimately re-run the action while the caller believes
		// the step is done.
		return nil, &runbook.PersistenceError{Op: "ledger.put", Err: putErr}
	}

	return result, nil
}

// Get returns the invocation record for a fingerprint, for introspection.
func (l *Ledger) Get(ctx context.Context, fp string) (*Invocation, error) {
	inv, err := l.store.GetInvocation(ctx, fp)
	if err != nil {
		if errors.Is(err, runbook.ErrInvocationNotFound) {
			return nil, err
		}
		return nil, &runbook.PersistenceError{Op: "ledger.get", Err: err}
	}
	return inv, nil
}
