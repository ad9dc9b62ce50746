package bunstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/checkpoint"
)

// LoadCheckpoint returns the checkpoint for a workflow ID.
func (s *Store) LoadCheckpoint(ctx context.Context, workflowID string) (*checkpoint.Checkpoint, error) {
	m := new(checkpointModel)
	err := s.db.NewSelect().Model(m).
		Where("workflow_id = ?", workflowID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, runbook.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("runbook/bun: load checkpoint: %w", err)
	}

	cp := &checkpoint.Checkpoint{
		WorkflowID: m.WorkflowID,
		Cursor:     m.Cursor,
		State:      make(map[string]json.RawMessage),
		UpdatedAt:  m.UpdatedAt,
	}
	if len(m.State) > 0 {
		if err := json.Unmarshal(m.State, &cp.State); err != nil {
			return nil, fmt.Errorf("runbook/bun: decode checkpoint state: %w", err)
		}
	}
	return cp, nil
}

// SaveCheckpoint atomically overwrites the checkpoint for its workflow ID.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *checkpoint.Checkpoint) error {
	state, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("runbook/bun: encode checkpoint state: %w", err)
	}

	m := &checkpointModel{
		WorkflowID: cp.WorkflowID,
		Cursor:     cp.Cursor,
		State:      state,
		UpdatedAt:  time.Now().UTC(),
	}

	_, err = s.db.NewInsert().Model(m).
		On("CONFLICT (workflow_id) DO UPDATE").
		Set("cursor = EXCLUDED.cursor").
		Set("state = EXCLUDED.state").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("runbook/bun: save checkpoint: %w", err)
	}
	return nil
}

// DeleteCheckpoint removes the checkpoint for a workflow ID.
func (s *Store) DeleteCheckpoint(ctx context.Context, workflowID string) error {
	_, err := s.db.NewDelete().
		TableExpr("runbook_checkpoints").
		Where("workflow_id = ?", workflowID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("runbook/bun: delete checkpoint: %w", err)
	}
	return nil
}
