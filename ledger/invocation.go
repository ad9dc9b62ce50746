package ledger

import (
	"time"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/id"
)

// Status represents the lifecycle state of an action invocation.
type Status string

const (
	// StatusPending means the action is (or was) in flight. A pending
	// record found on resume is a crash artifact and may be re-executed
	// under the workflow lease.
	StatusPending Status = "pending"
	// StatusCompleted means the action took effect and its result is
	// cached. Completed is terminal and immutable.
	StatusCompleted Status = "completed"
	// StatusFailed means the last execution attempt raised. A later
	// attempt with the same fingerprint transitions back to pending.
	StatusFailed Status = "failed"
)

// Invocation is the durable record of one logical action invocation.
// The Fingerprint is the ledger key: it is derived deterministically from
// the workflow ID, step name, action name, and parameters, never from time
// or randomness.
type Invocation struct {
	runbook.Entity

	ID          id.InvocationID `json:"id"`
	Fingerprint string          `json:"fingerprint"`
	WorkflowID  string          `json:"workflow_id"`
	StepName    string          `json:"step_name"`
	ActionName  string          `json:"action_name"`
	Status      Status          `json:"status"`
	Result      []byte          `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	Attempts    int             `json:"attempts"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
