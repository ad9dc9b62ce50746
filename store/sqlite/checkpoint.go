package sqlite

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
	cp := &checkpoint.Checkpoint{WorkflowID: workflowID}
	var state []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT cursor, state, updated_at
		FROM runbook_checkpoints
		WHERE workflow_id = ?`,
		workflowID,
	).Scan(&cp.Cursor, &state, &cp.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, runbook.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("runbook/sqlite: load checkpoint: %w", err)
	}

	cp.State = make(map[string]json.RawMessage)
	if len(state) > 0 {
		if err := json.Unmarshal(state, &cp.State); err != nil {
			return nil, fmt.Errorf("runbook/sqlite: decode checkpoint state: %w", err)
		}
	}
	return cp, nil
}

// SaveCheckpoint atomically overwrites the checkpoint for its workflow ID.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *checkpoint.Checkpoint) error {
	state, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("runbook/sqlite: encode checkpoint state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runbook_checkpoints (workflow_id, cursor, state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (workflow_id) DO UPDATE SET
			cursor = excluded.cursor,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		cp.WorkflowID, cp.Cursor, string(state), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("runbook/sqlite: save checkpoint: %w", err)
	}
	return nil
}

// DeleteCheckpoint removes the checkpoint for a workflow ID.
func (s *Store) DeleteCheckpoint(ctx context.Context, workflowID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM runbook_checkpoints WHERE workflow_id = ?`, workflowID)
	if err != nil {
		return fmt.Errorf("runbook/sqlite: delete checkpoint: %w", err)
	}
	return nil
}
