package hook

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/runbook/ledger"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type runStartedEntry struct {
	name string
	hook RunStarted
}

type runResumedEntry struct {
	name string
	hook RunResumed
}

type runCompletedEntry struct {
	name string
	hook RunCompleted
}

type runFailedEntry struct {
	name string
	hook RunFailed
}

type runCancelledEntry struct {
	name string
	hook RunCancelled
}

type stepStartedEntry struct {
	name string
	hook StepStarted
}

type stepCompletedEntry struct {
	name string
	hook StepCompleted
}

type stepSkippedEntry struct {
	name string
	hook StepSkipped
}

type stepFailedEntry struct {
	name string
	hook StepFailed
}

type approvalRequestedEntry struct {
	name string
	hook ApprovalRequested
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	runStarted        []runStartedEntry
	runResumed        []runResumedEntry
	runCompleted      []runCompletedEntry
	runFailed         []runFailedEntry
	runCancelled      []runCancelledEntry
	stepStarted       []stepStartedEntry
	stepCompleted     []stepCompletedEntry
	stepSkipped       []stepSkippedEntry
	stepFailed        []stepFailedEntry
	approvalRequested []approvalRequestedEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(RunStarted); ok {
		r.runStarted = append(r.runStarted, runStartedEntry{name, h})
	}
	if h, ok := e.(RunResumed); ok {
		r.runResumed = append(r.runResumed, runResumedEntry{name, h})
	}
	if h, ok := e.(RunCompleted); ok {
		r.runCompleted = append(r.runCompleted, runCompletedEntry{name, h})
	}
	if h, ok := e.(RunFailed); ok {
		r.runFailed = append(r.runFailed, runFailedEntry{name, h})
	}
	if h, ok := e.(RunCancelled); ok {
		r.runCancelled = append(r.runCancelled, runCancelledEntry{name, h})
	}
	if h, ok := e.(StepStarted); ok {
		r.stepStarted = append(r.stepStarted, stepStartedEntry{name, h})
	}
	if h, ok := e.(StepCompleted); ok {
		r.stepCompleted = append(r.stepCompleted, stepCompletedEntry{name, h})
	}
	if h, ok := e.(StepSkipped); ok {
		r.stepSkipped = append(r.stepSkipped, stepSkippedEntry{name, h})
	}
	if h, ok := e.(StepFailed); ok {
		r.stepFailed = append(r.stepFailed, stepFailedEntry{name, h})
	}
	if h, ok := e.(ApprovalRequested); ok {
		r.approvalRequested = append(r.approvalRequested, approvalRequestedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Run event emitters
// ──────────────────────────────────────────────────

// EmitRunStarted notifies all extensions that implement RunStarted.
func (r *Registry) EmitRunStarted(ctx context.Context, workflowID string, steps int) {
	for _, e := range r.runStarted {
		if err := e.hook.OnRunStarted(ctx, workflowID, steps); err != nil {
			r.logHookError("OnRunStarted", e.name, err)
		}
	}
}

// EmitRunResumed notifies all extensions that implement RunResumed.
func (r *Registry) EmitRunResumed(ctx context.Context, workflowID string, cursor int) {
	for _, e := range r.runResumed {
		if err := e.hook.OnRunResumed(ctx, workflowID, cursor); err != nil {
			r.logHookError("OnRunResumed", e.name, err)
		}
	}
}

// EmitRunCompleted notifies all extensions that implement RunCompleted.
func (r *Registry) EmitRunCompleted(ctx context.Context, workflowID string, elapsed time.Duration) {
	for _, e := range r.runCompleted {
		if err := e.hook.OnRunCompleted(ctx, workflowID, elapsed); err != nil {
			r.logHookError("OnRunCompleted", e.name, err)
		}
	}
}

// EmitRunFailed notifies all extensions that implement RunFailed.
func (r *Registry) EmitRunFailed(ctx context.Context, workflowID string, runErr error) {
	for _, e := range r.runFailed {
		if err := e.hook.OnRunFailed(ctx, workflowID, runErr); err != nil {
			r.logHookError("OnRunFailed", e.name, err)
		}
	}
}

// EmitRunCancelled notifies all extensions that implement RunCancelled.
func (r *Registry) EmitRunCancelled(ctx context.Context, workflowID string, cursor int) {
	for _, e := range r.runCancelled {
		if err := e.hook.OnRunCancelled(ctx, workflowID, cursor); err != nil {
			r.logHookError("OnRunCancelled", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Step event emitters
// ──────────────────────────────────────────────────

// EmitStepStarted notifies all extensions that implement StepStarted.
func (r *Registry) EmitStepStarted(ctx context.Context, workflowID, stepName string, index int) {
	for _, e := range r.stepStarted {
		if err := e.hook.OnStepStarted(ctx, workflowID, stepName, index); err != nil {
			r.logHookError("OnStepStarted", e.name, err)
		}
	}
}

// EmitStepCompleted notifies all extensions that implement StepCompleted.
func (r *Registry) EmitStepCompleted(ctx context.Context, workflowID, stepName string, elapsed time.Duration) {
	for _, e := range r.stepCompleted {
		if err := e.hook.OnStepCompleted(ctx, workflowID, stepName, elapsed); err != nil {
			r.logHookError("OnStepCompleted", e.name, err)
		}
	}
}

// EmitStepSkipped notifies all extensions that implement StepSkipped.
func (r *Registry) EmitStepSkipped(ctx context.Context, inv *ledger.Invocation) {
	for _, e := range r.stepSkipped {
		if err := e.hook.OnStepSkipped(ctx, inv); err != nil {
			r.logHookError("OnStepSkipped", e.name, err)
		}
	}
}

// EmitStepFailed notifies all extensions that implement StepFailed.
func (r *Registry) EmitStepFailed(ctx context.Context, workflowID, stepName string, stepErr error) {
	for _, e := range r.stepFailed {
		if err := e.hook.OnStepFailed(ctx, workflowID, stepName, stepErr); err != nil {
			r.logHookError("OnStepFailed", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitApprovalRequested notifies all extensions that implement ApprovalRequested.
func (r *Registry) EmitApprovalRequested(ctx context.Context, workflowID, stepName, actionName string, granted bool) {
	for _, e := range r.approvalRequested {
		if err := e.hook.OnApprovalRequested(ctx, workflowID, stepName, actionName, granted); err != nil {
			r.logHookError("OnApprovalRequested", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the run.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
