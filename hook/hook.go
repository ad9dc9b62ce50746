package hook

import (
	"context"
	"time"

	"github.com/xraph/runbook/ledger"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Run lifecycle hooks
// ──────────────────────────────────────────────────

// RunStarted is called when a workflow run begins with no prior checkpoint.
type RunStarted interface {
	OnRunStarted(ctx context.Context, workflowID string, steps int) error
}

// RunResumed is called when a run picks up from an existing checkpoint.
// cursor is the number of steps already completed by earlier attempts.
type RunResumed interface {
	OnRunResumed(ctx context.Context, workflowID string, cursor int) error
}

// RunCompleted is called after a run finishes all steps successfully.
type RunCompleted interface {
	OnRunCompleted(ctx context.Context, workflowID string, elapsed time.Duration) error
}

// RunFailed is called when a run stops because a step failed.
type RunFailed interface {
	OnRunFailed(ctx context.Context, workflowID string, err error) error
}

// RunCancelled is called when a run stops at a step boundary because its
// context was cancelled. cursor is where a later attempt will resume.
type RunCancelled interface {
	OnRunCancelled(ctx context.Context, workflowID string, cursor int) error
}

// ──────────────────────────────────────────────────
// Step lifecycle hooks
// ──────────────────────────────────────────────────

// StepStarted is called before a step's action is invoked (and before the
// ledger is consulted, so it also fires for steps that end up replayed).
type StepStarted interface {
	OnStepStarted(ctx context.Context, workflowID, stepName string, index int) error
}

// StepCompleted is called after a step's action finishes successfully.
type StepCompleted interface {
	OnStepCompleted(ctx context.Context, workflowID, stepName string, elapsed time.Duration) error
}

// StepSkipped is called when a step's result is served from the ledger
// instead of re-invoking the action.
type StepSkipped interface {
	OnStepSkipped(ctx context.Context, inv *ledger.Invocation) error
}

// StepFailed is called when a step's action fails.
type StepFailed interface {
	OnStepFailed(ctx context.Context, workflowID, stepName string, err error) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// ApprovalRequested is called after an approval-gated action's decision
// is known, whether granted or denied.
type ApprovalRequested interface {
	OnApprovalRequested(ctx context.Context, workflowID, stepName, actionName string, granted bool) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
