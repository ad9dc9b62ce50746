package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/runbook/hook"
	"github.com/xraph/runbook/ledger"
)

// Compile-time interface checks.
var (
	_ hook.Extension         = (*Extension)(nil)
	_ hook.RunStarted        = (*Extension)(nil)
	_ hook.RunResumed        = (*Extension)(nil)
	_ hook.RunCompleted      = (*Extension)(nil)
	_ hook.RunFailed         = (*Extension)(nil)
	_ hook.RunCancelled      = (*Extension)(nil)
	_ hook.StepStarted       = (*Extension)(nil)
	_ hook.StepCompleted     = (*Extension)(nil)
	_ hook.StepSkipped       = (*Extension)(nil)
	_ hook.StepFailed        = (*Extension)(nil)
	_ hook.ApprovalRequested = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so this package does not import any trail backend —
// callers inject the concrete sink at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one immutable entry of the remediation audit trail.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges runbook lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
// Every remediation a workflow performs leaves a record, including replays
// (step.skipped), so the trail answers "what touched production and when".
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements hook.Extension.
func (e *Extension) Name() string { return "audit" }

// ── Run lifecycle hooks ─────────────────────────────

// OnRunStarted implements hook.RunStarted.
func (e *Extension) OnRunStarted(ctx context.Context, workflowID string, steps int) error {
	return e.record(ctx, ActionRunStarted, SeverityInfo, OutcomeSuccess,
		ResourceRun, workflowID, CategoryRun, nil,
		"steps", steps,
	)
}

// OnRunResumed implements hook.RunResumed.
func (e *Extension) OnRunResumed(ctx context.Context, workflowID string, cursor int) error {
	return e.record(ctx, ActionRunResumed, SeverityInfo, OutcomeSuccess,
		ResourceRun, workflowID, CategoryRun, nil,
		"cursor", cursor,
	)
}

// OnRunCompleted implements hook.RunCompleted.
func (e *Extension) OnRunCompleted(ctx context.Context, workflowID string, elapsed time.Duration) error {
	return e.record(ctx, ActionRunCompleted, SeverityInfo, OutcomeSuccess,
		ResourceRun, workflowID, CategoryRun, nil,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnRunFailed implements hook.RunFailed.
func (e *Extension) OnRunFailed(ctx context.Context, workflowID string, runErr error) error {
	return e.record(ctx, ActionRunFailed, SeverityCritical, OutcomeFailure,
		ResourceRun, workflowID, CategoryRun, runErr)
}

// OnRunCancelled implements hook.RunCancelled.
func (e *Extension) OnRunCancelled(ctx context.Context, workflowID string, cursor int) error {
	return e.record(ctx, ActionRunCancelled, SeverityWarning, OutcomeFailure,
		ResourceRun, workflowID, CategoryRun, nil,
		"cursor", cursor,
	)
}

// ── Step lifecycle hooks ────────────────────────────

// OnStepStarted implements hook.StepStarted.
func (e *Extension) OnStepStarted(ctx context.Context, workflowID, stepName string, index int) error {
	return e.record(ctx, ActionStepStarted, SeverityInfo, OutcomeSuccess,
		ResourceStep, stepName, CategoryStep, nil,
		"workflow_id", workflowID,
		"index", index,
	)
}

// OnStepCompleted implements hook.StepCompleted.
func (e *Extension) OnStepCompleted(ctx context.Context, workflowID, stepName string, elapsed time.Duration) error {
	return e.record(ctx, ActionStepCompleted, SeverityInfo, OutcomeSuccess,
		ResourceStep, stepName, CategoryStep, nil,
		"workflow_id", workflowID,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnStepSkipped implements hook.StepSkipped. Replays matter to the trail:
// they show a resume observed a prior effect instead of repeating it.
func (e *Extension) OnStepSkipped(ctx context.Context, inv *ledger.Invocation) error {
	return e.record(ctx, ActionStepSkipped, SeverityInfo, OutcomeSuccess,
		ResourceStep, inv.StepName, CategoryStep, nil,
		"workflow_id", inv.WorkflowID,
		"action", inv.ActionName,
		"fingerprint", inv.Fingerprint,
	)
}

// OnStepFailed implements hook.StepFailed.
func (e *Extension) OnStepFailed(ctx context.Context, workflowID, stepName string, stepErr error) error {
	return e.record(ctx, ActionStepFailed, SeverityWarning, OutcomeFailure,
		ResourceStep, stepName, CategoryStep, stepErr,
		"workflow_id", workflowID,
	)
}

// ── Approval hooks ──────────────────────────────────

// OnApprovalRequested implements hook.ApprovalRequested.
func (e *Extension) OnApprovalRequested(ctx context.Context, workflowID, stepName, actionName string, granted bool) error {
	outcome := OutcomeSuccess
	severity := SeverityInfo
	if !granted {
		outcome = OutcomeFailure
		severity = SeverityWarning
	}
	return e.record(ctx, ActionApprovalRequested, severity, outcome,
		ResourceStep, stepName, CategoryApproval, nil,
		"workflow_id", workflowID,
		"action", actionName,
		"granted", granted,
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
