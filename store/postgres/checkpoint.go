package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/checkpoint"
)

// LoadCheckpoint returns the checkpoint for a workflow ID.
func (s *Store) LoadCheckpoint(ctx context.Context, workflowID string) (*checkpoint.Checkpoint, error) {
	cp := &checkpoint.Checkpoint{WorkflowID: workflowID}
	var state []byte

	err := s.pool.QueryRow(ctx, `
		SELECT cursor, state, updated_at
		FROM runbook_checkpoints
		WHERE workflow_id = $1`,
		workflowID,
	).Scan(&cp.Cursor, &state, &cp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, runbook.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("runbook/postgres: load checkpoint: %w", err)
	}

	cp.State = make(map[string]json.RawMessage)
	if len(state) > 0 {
		if err := json.Unmarshal(state, &cp.State); err != nil {
			return nil, fmt.Errorf("runbook/postgres: decode checkpoint state: %w", err)
		}
	}
	return cp, nil
}

// SaveCheckpoint atomically overwrites the checkpoint for its workflow ID.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *checkpoint.Checkpoint) error {
	state, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("runbook/postgres: encode checkpoint state: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO runbook_checkpoints (workflow_id, cursor, state, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (workflow_id) DO UPDATE SET
			cursor = EXCLUDED.cursor,
			state = EXCLUDED.state,
			updated_at = NOW()`,
		cp.WorkflowID, cp.Cursor, state,
	)
	if err != nil {
		return fmt.Errorf("runbook/postgres: save checkpoint: %w", err)
	}
	return nil
}

// DeleteCheckpoint removes the checkpoint for a workflow ID.
func (s *Store) DeleteCheckpoint(ctx context.Context, workflowID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM runbook_checkpoints WHERE workflow_id = $1`, workflowID)
	if err != nil {
		return fmt.Errorf("runbook/postgres: delete checkpoint: %w", err)
	}
	return nil
}
