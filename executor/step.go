package executor

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/action"
)

// Step names one unit of a workflow: which registered action to invoke and
// with what parameters. The ordered step list is fixed at submission time
// and must not change between the original run and a resume.
type Step struct {
	// Name is unique within the workflow and keys the step's result in
	// the accumulated state.
	Name string

	// Action is the name of a registered action.
	Action string

	// Params is the JSON-encoded input for the action. It participates in
	// the invocation fingerprint, so it must be stable across resumes.
	Params json.RawMessage

	// Timeout bounds the action invocation. Zero means no per-step limit.
	Timeout time.Duration
}

// validate checks the run input against the registry and returns the
// resolved definition for each step, aligned by index.
func (e *Executor) validate(workflowID string, steps []Step) ([]*action.Definition, error) {
	if workflowID == "" {
		return nil, runbook.ErrEmptyWorkflowID
	}
	if len(steps) == 0 {
		return nil, runbook.ErrNoSteps
	}

	defs := make([]*action.Definition, len(steps))
	seen := make(map[string]struct{}, len(steps))
	for i, s := range steps {
		if s.Name == "" {
			return nil, fmt.Errorf("executor: step %d has an empty name", i)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("executor: step %q: %w", s.Name, runbook.ErrDuplicateStep)
		}
		seen[s.Name] = struct{}{}

		def, ok := e.actions.Resolve(s.Action)
		if !ok {
			return nil, fmt.Errorf("executor: step %q action %q: %w", s.Name, s.Action, runbook.ErrActionNotRegistered)
		}
		if def.Safety == action.SafetyForbidden {
			return nil, fmt.Errorf("executor: step %q action %q: %w", s.Name, s.Action, runbook.ErrActionForbidden)
		}
		defs[i] = def
	}
	return defs, nil
}
