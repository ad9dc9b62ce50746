package runbook

import (
	"errors"
	"fmt"
)

var (
	// Store errors.
	ErrNoStore     = errors.New("runbook: no store configured")
	ErrStoreClosed = errors.New("runbook: store closed")

	// Not found errors.
	ErrInvocationNotFound = errors.New("runbook: invocation not found")
	ErrCheckpointNotFound = errors.New("runbook: checkpoint not found")
	ErrLeaseNotFound      = errors.New("runbook: lease not found")

	// Validation errors.
	ErrEmptyWorkflowID = errors.New("runbook: empty workflow id")
	ErrNoSteps         = errors.New("runbook: workflow has no steps")
	ErrDuplicateStep   = errors.New("runbook: duplicate step name")

	// Action errors.
	ErrActionNotRegistered = errors.New("runbook: action not registered")
	ErrActionForbidden     = errors.New("runbook: action is forbidden for automation")
	ErrApprovalDenied      = errors.New("runbook: approval denied")

	// Coordination errors.
	ErrWorkflowLocked = errors.New("runbook: workflow is locked by another executor")
	ErrLeaseNotHeld   = errors.New("runbook: lease not held by this executor")
	ErrBreakerOpen    = errors.New("runbook: circuit breaker open")
)

// PersistenceError reports that the ledger, checkpoint, or lease store failed
// during an operation. It is distinct from an action failure: the action may
// already have taken effect even though progress could not be durably
// recorded. Callers distinguish it with errors.As.
type PersistenceError struct {
	// Op names the failed store operation, e.g. "ledger.put" or
	// "checkpoint.save".
	Op  string
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("runbook: persistence failure during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying store error.
func (e *PersistenceError) Unwrap() error { return e.Err }
