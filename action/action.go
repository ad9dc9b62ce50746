// Package action defines the registry of named, side-effecting operations a
// runbook may invoke, together with their safety classification. The
// registry is supplied by the surrounding infrastructure-automation system;
// Runbook itself never defines what an action does.
package action

import (
	"context"
	"encoding/json"
)

// State maps completed step names to their result values. Handlers receive
// the state accumulated so far, so later steps can use earlier results.
type State map[string]json.RawMessage

// Decode unmarshals the named step result into v. Returns false when the
// step has no recorded result.
func (s State) Decode(stepName string, v any) (bool, error) {
	raw, ok := s[stepName]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		buf := make(json.RawMessage, len(v))
		copy(buf, v)
		out[k] = buf
	}
	return out
}

// Func executes an action. It must either fully succeed (the external side
// effect is observably complete) or fully fail — no partial, silently
// ambiguous outcomes. Implementations must be idempotent at the
// infrastructure layer: a crash between the action's effect and the ledger
// commit re-runs the action on resume.
type Func func(ctx context.Context, params json.RawMessage, state State) (json.RawMessage, error)

// Safety classifies how an action may be automated.
type Safety string

const (
	// SafetySafe actions run fully automated.
	SafetySafe Safety = "safe"
	// SafetyApproval actions need an Approver's consent before every
	// non-cached execution.
	SafetyApproval Safety = "approval"
	// SafetyForbidden actions are never automated; a workflow referencing
	// one fails validation.
	SafetyForbidden Safety = "forbidden"
)

// Definition describes a registered action: its handler plus the operational
// metadata used for gating and audit.
type Definition struct {
	Name        string
	Safety      Safety
	Description string
	// BlastRadius names the scope of damage a misfire could cause,
	// e.g. "single pod" or "entire deployment".
	BlastRadius  string
	Rollbackable bool
	Handler      Func
}
