// Package checkpoint defines the durable record of workflow progress: the
// cursor (index of the next step to execute) and the accumulated state of
// completed steps. A checkpoint lets the executor resume after an arbitrary
// crash without re-deriving which steps already ran.
//
// The checkpoint is an optimization layered over the ledger's correctness
// guarantee: losing a checkpoint write never duplicates an action, it only
// costs ledger lookups on resume.
package checkpoint

import (
	"encoding/json"
	"time"
)

// Checkpoint is the persisted projection of a workflow run's progress.
// It is exclusively written by the executor; operational tooling may read it.
type Checkpoint struct {
	WorkflowID string                     `json:"workflow_id"`
	// Cursor is the index of the next step to execute. Monotonically
	// non-decreasing for a given workflow ID.
	Cursor    int                        `json:"cursor"`
	State     map[string]json.RawMessage `json:"state"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// Clone returns a deep copy, so stores can hand out checkpoints without
// sharing the state map with callers.
func (c *Checkpoint) Clone() *Checkpoint {
	cp := *c
	cp.State = make(map[string]json.RawMessage, len(c.State))
	for k, v := range c.State {
		buf := make(json.RawMessage, len(v))
		copy(buf, v)
		cp.State[k] = buf
	}
	return &cp
}
