package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/action"
	"github.com/xraph/runbook/breaker"
	"github.com/xraph/runbook/checkpoint"
	"github.com/xraph/runbook/fingerprint"
	"github.com/xraph/runbook/hook"
	"github.com/xraph/runbook/lease"
	"github.com/xraph/runbook/ledger"
	"github.com/xraph/runbook/middleware"
)

// DefaultLeaseTTL is the lease duration when WithLeaseTTL is not given.
// The lease is renewed at every step boundary, so the TTL only needs to
// outlive a single step plus its persistence writes.
const DefaultLeaseTTL = 1 * time.Minute

// Store is the persistence surface the executor needs: the invocation
// ledger, the checkpoint record, and the per-workflow lease. Every backend
// in store/ satisfies it.
type Store interface {
	ledger.Store
	checkpoint.Store
	lease.Store
}

// hookReplayEmitter adapts *hook.Registry to satisfy ledger.ReplayEmitter.
// This breaks the import cycle: ledger defines the interface, hook.Registry
// provides the implementation, and the executor plugs them together.
type hookReplayEmitter struct {
	r *hook.Registry
}

func (a *hookReplayEmitter) EmitInvocationReplayed(ctx context.Context, inv *ledger.Invocation) {
	a.r.EmitStepSkipped(ctx, inv)
}

// Executor runs an ordered list of named steps for a workflow ID, exactly
// once each, resuming cleanly after crashes. Correctness comes from the
// ledger (at-most-once effect per fingerprint); the checkpoint is a
// fast-path that skips obviously-done steps without ledger lookups.
type Executor struct {
	store    Store
	actions  *action.Registry
	ledger   *ledger.Ledger
	hooks    *hook.Registry
	exts     []hook.Extension
	approver action.Approver
	brk      *breaker.Breaker
	mws      []middleware.Middleware
	chain    middleware.Middleware
	leaseTTL time.Duration
	logger   *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithExtension registers a lifecycle hook extension.
func WithExtension(ext hook.Extension) Option {
	return func(e *Executor) { e.exts = append(e.exts, ext) }
}

// WithApprover sets the approver consulted before approval-gated actions
// execute. Without one, every approval-gated execution is denied.
func WithApprover(a action.Approver) Option {
	return func(e *Executor) { e.approver = a }
}

// WithBreaker gates new runs behind a circuit breaker. Run outcomes are
// recorded on it.
func WithBreaker(b *breaker.Breaker) Option {
	return func(e *Executor) { e.brk = b }
}

// WithMiddleware appends middleware to the action execution chain.
// The first middleware added is the outermost wrapper.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(e *Executor) { e.mws = append(e.mws, mws...) }
}

// WithLeaseTTL overrides DefaultLeaseTTL.
func WithLeaseTTL(ttl time.Duration) Option {
	return func(e *Executor) { e.leaseTTL = ttl }
}

// New creates an Executor over the given store and action registry.
func New(store Store, actions *action.Registry, opts ...Option) *Executor {
	e := &Executor{
		store:    store,
		actions:  actions,
		leaseTTL: DefaultLeaseTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.hooks = hook.NewRegistry(e.logger)
	for _, ext := range e.exts {
		e.hooks.Register(ext)
	}

	e.ledger = ledger.New(store,
		ledger.WithLogger(e.logger),
		ledger.WithEmitter(&hookReplayEmitter{e.hooks}),
	)
	e.chain = middleware.Chain(e.mws...)

	return e
}

// Hooks returns the executor's hook registry, so callers can emit
// EmitShutdown during graceful shutdown.
func (e *Executor) Hooks() *hook.Registry { return e.hooks }

// Run executes steps for workflowID strictly sequentially, resuming from
// any existing checkpoint, and returns the full accumulated state keyed by
// step name.
//
// Calling Run again with the same workflowID and step list after a failure
// or crash re-invokes already-completed actions zero additional times: the
// checkpoint skips them cheaply, and the ledger guarantees it even when the
// checkpoint write was lost.
//
// Failures surface as:
//   - *StepFailedError when a step's action failed (cursor not advanced)
//   - *runbook.PersistenceError when ledger or checkpoint I/O failed
//   - *CancelledError when ctx was cancelled at a step boundary
//   - runbook.ErrWorkflowLocked when another run holds the workflow lease
//   - runbook.ErrBreakerOpen when the circuit breaker is open
func (e *Executor) Run(ctx context.Context, workflowID string, steps []Step) (action.State, error) {
	defs, err := e.validate(workflowID, steps)
	if err != nil {
		return nil, err
	}

	if e.brk != nil {
		if err := e.brk.Allow(); err != nil {
			return nil, fmt.Errorf("executor: workflow %s: %w", workflowID, err)
		}
	}

	holder := lease.NewHolder()
	acquired, err := e.store.AcquireLease(ctx, workflowID, holder, e.leaseTTL)
	if err != nil {
		return nil, &runbook.PersistenceError{Op: "lease.acquire", Err: err}
	}
	if !acquired {
		return nil, fmt.Errorf("executor: workflow %s: %w", workflowID, runbook.ErrWorkflowLocked)
	}
	defer e.releaseLease(ctx, workflowID, holder)

	start := time.Now()

	cursor, state, err := e.loadProgress(ctx, workflowID, len(steps))
	if err != nil {
		return nil, err
	}

	for i := cursor; i < len(steps); i++ {
		// Cancellation is honored only here, at the step boundary. An
		// in-flight action is never aborted into an ambiguous state.
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.logger.Info("run cancelled at step boundary",
				slog.String("workflow_id", workflowID),
				slog.Int("cursor", i),
			)
			e.hooks.EmitRunCancelled(ctx, workflowID, i)
			return state, &CancelledError{WorkflowID: workflowID, Cursor: i, Err: ctxErr}
		}

		if err := e.runStep(ctx, workflowID, steps[i], defs[i], i, state); err != nil {
			e.hooks.EmitRunFailed(ctx, workflowID, err)
			if e.brk != nil {
				e.brk.Record(false)
			}
			return state, err
		}

		// Best-effort: a lost lease does not stop the run, the ledger
		// still serializes effects.
		if ok, renewErr := e.store.RenewLease(ctx, workflowID, holder, e.leaseTTL); renewErr != nil || !ok {
			e.logger.Warn("lease renewal failed",
				slog.String("workflow_id", workflowID),
				slog.Bool("held", ok),
			)
		}
	}

	e.logger.Info("run completed",
		slog.String("workflow_id", workflowID),
		slog.Int("steps", len(steps)),
		slog.Duration("elapsed", time.Since(start)),
	)
	e.hooks.EmitRunCompleted(ctx, workflowID, time.Since(start))
	if e.brk != nil {
		e.brk.Record(true)
	}
	return state, nil
}

// loadProgress reads the checkpoint (if any), emits the started/resumed
// event, and returns the starting cursor and accumulated state.
func (e *Executor) loadProgress(ctx context.Context, workflowID string, steps int) (int, action.State, error) {
	cp, err := e.store.LoadCheckpoint(ctx, workflowID)
	switch {
	case err == nil:
		state := make(action.State, len(cp.State))
		for k, v := range cp.State {
			state[k] = v
		}
		if cp.Cursor > 0 {
			e.logger.Info("resuming from checkpoint",
				slog.String("workflow_id", workflowID),
				slog.Int("cursor", cp.Cursor),
			)
			e.hooks.EmitRunResumed(ctx, workflowID, cp.Cursor)
		} else {
			e.hooks.EmitRunStarted(ctx, workflowID, steps)
		}
		return cp.Cursor, state, nil
	case errors.Is(err, runbook.ErrCheckpointNotFound):
		e.hooks.EmitRunStarted(ctx, workflowID, steps)
		return 0, action.State{}, nil
	default:
		return 0, nil, &runbook.PersistenceError{Op: "checkpoint.load", Err: err}
	}
}

// runStep executes one step through the ledger, stores its result in state,
// and persists the advanced checkpoint.
func (e *Executor) runStep(ctx context.Context, workflowID string, step Step, def *action.Definition, index int, state action.State) error {
	e.hooks.EmitStepStarted(ctx, workflowID, step.Name, index)

	fp, err := fingerprint.Compute(workflowID, step.Name, step.Action, step.Params)
	if err != nil {
		return &StepFailedError{WorkflowID: workflowID, StepName: step.Name, Err: err}
	}

	inv := &ledger.Invocation{
		Fingerprint: fp,
		WorkflowID:  workflowID,
		StepName:    step.Name,
		ActionName:  step.Action,
	}

	stepStart := time.Now()
	result, err := e.ledger.GetOrExecute(ctx, inv, func(ctx context.Context) ([]byte, error) {
		// The approver is consulted only when the action actually runs:
		// replays cause no new side effect, so there is nothing to approve.
		if def.Safety == action.SafetyApproval {
			if err := e.approve(ctx, workflowID, step, def); err != nil {
				return nil, err
			}
		}
		return e.chain(ctx, inv, func(ctx context.Context) (json.RawMessage, error) {
			if step.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, step.Timeout)
				defer cancel()
			}
			return def.Handler(ctx, step.Params, state)
		})
	})
	if err != nil {
		e.hooks.EmitStepFailed(ctx, workflowID, step.Name, err)
		var pe *runbook.PersistenceError
		if errors.As(err, &pe) {
			return err
		}
		return &StepFailedError{WorkflowID: workflowID, StepName: step.Name, Err: err}
	}

	state[step.Name] = result

	cp := &checkpoint.Checkpoint{
		WorkflowID: workflowID,
		Cursor:     index + 1,
		State:      state,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := e.store.SaveCheckpoint(ctx, cp); err != nil {
		// The action already happened and is safely recorded in the
		// ledger; only the fast-path is stale. Still surfaced distinctly,
		// because progress was not durably recorded.
		return &runbook.PersistenceError{Op: "checkpoint.save", Err: err}
	}

	e.hooks.EmitStepCompleted(ctx, workflowID, step.Name, time.Since(stepStart))
	return nil
}

func (e *Executor) approve(ctx context.Context, workflowID string, step Step, def *action.Definition) error {
	granted := false
	var err error
	if e.approver != nil {
		granted, err = e.approver.Approve(ctx, workflowID, def, step.Params)
	}
	e.hooks.EmitApprovalRequested(ctx, workflowID, step.Name, step.Action, granted && err == nil)
	if err != nil {
		return fmt.Errorf("executor: approval for action %s: %w", step.Action, err)
	}
	if !granted {
		return fmt.Errorf("executor: action %s: %w", step.Action, runbook.ErrApprovalDenied)
	}
	return nil
}

// releaseLease drops the lease with a context that survives cancellation,
// so a cancelled run still unlocks the workflow.
func (e *Executor) releaseLease(ctx context.Context, workflowID, holder string) {
	if err := e.store.ReleaseLease(context.WithoutCancel(ctx), workflowID, holder); err != nil {
		e.logger.Warn("lease release failed",
			slog.String("workflow_id", workflowID),
			slog.String("error", err.Error()),
		)
	}
}

// RunAll executes several independent workflows concurrently, one Run per
// workflow ID. It returns the accumulated state of every workflow that
// completed and the first error encountered. Workflows with distinct IDs
// share no coordination beyond the store.
func (e *Executor) RunAll(ctx context.Context, workflows map[string][]Step) (map[string]action.State, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	results := make(map[string]action.State, len(workflows))

	for id, steps := range workflows {
		g.Go(func() error {
			state, err := e.Run(ctx, id, steps)
			if err != nil {
				return err
			}
			mu.Lock()
			results[id] = state
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
