package audit

// Audit event actions. Each constant corresponds to one hook lifecycle
// event and becomes the Action field of the audit event.
const (
	ActionRunStarted        = "run.started"
	ActionRunResumed        = "run.resumed"
	ActionRunCompleted      = "run.completed"
	ActionRunFailed         = "run.failed"
	ActionRunCancelled      = "run.cancelled"
	ActionStepStarted       = "step.started"
	ActionStepCompleted     = "step.completed"
	ActionStepSkipped       = "step.skipped"
	ActionStepFailed        = "step.failed"
	ActionApprovalRequested = "approval.requested"
)

// Audit event categories group related actions.
const (
	CategoryRun      = "runbook.run"
	CategoryStep     = "runbook.step"
	CategoryApproval = "runbook.approval"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceRun  = "workflow_run"
	ResourceStep = "step"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionRunStarted,
		ActionRunResumed,
		ActionRunCompleted,
		ActionRunFailed,
		ActionRunCancelled,
		ActionStepStarted,
		ActionStepCompleted,
		ActionStepSkipped,
		ActionStepFailed,
		ActionApprovalRequested,
	}
}
