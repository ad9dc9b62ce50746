package executor

import "fmt"

// StepFailedError is the terminal failure of a run: the named step's action
// failed and the cursor did not advance. Unwrap exposes the action's cause
// so callers can distinguish action failures from persistence failures with
// errors.As.
type StepFailedError struct {
	WorkflowID string
	StepName   string
	Err        error
}

func (e *StepFailedError) Error() string {
	return fmt.Sprintf("executor: workflow %s: step %s failed: %v", e.WorkflowID, e.StepName, e.Err)
}

func (e *StepFailedError) Unwrap() error { return e.Err }

// CancelledError reports a caller-requested stop honored at a step
// boundary. The checkpoint reflects the last fully completed step; Cursor
// is where a later run will resume.
type CancelledError struct {
	WorkflowID string
	Cursor     int
	Err        error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("executor: workflow %s cancelled before step %d: %v", e.WorkflowID, e.Cursor, e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }
