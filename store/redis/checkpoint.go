package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/checkpoint"
)

// LoadCheckpoint returns the checkpoint for a workflow ID.
func (s *Store) LoadCheckpoint(ctx context.Context, workflowID string) (*checkpoint.Checkpoint, error) {
	vals, err := s.client.HGetAll(ctx, checkpointKey(workflowID)).Result()
	if err != nil {
		return nil, fmt.Errorf("runbook/redis: load checkpoint: %w", err)
	}
	if len(vals) == 0 {
		return nil, runbook.ErrCheckpointNotFound
	}

	cursor, _ := strconv.Atoi(vals["cursor"]) //nolint:errcheck // best-effort parse from trusted Redis data
	updatedAt, _ := time.Parse(time.RFC3339Nano, vals["updated_at"]) //nolint:errcheck // best-effort parse from trusted Redis data

	cp := &checkpoint.Checkpoint{
		WorkflowID: workflowID,
		Cursor:     cursor,
		State:      make(map[string]json.RawMessage),
		UpdatedAt:  updatedAt,
	}
	if v := vals["state"]; v != "" {
		if err := json.Unmarshal([]byte(v), &cp.State); err != nil {
			return nil, fmt.Errorf("runbook/redis: decode checkpoint state: %w", err)
		}
	}
	return cp, nil
}

// SaveCheckpoint overwrites the checkpoint for its workflow ID. Cursor and
// state travel in one HSET, so a reader never sees them out of sync.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *checkpoint.Checkpoint) error {
	state, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("runbook/redis: encode checkpoint state: %w", err)
	}

	err = s.client.HSet(ctx, checkpointKey(cp.WorkflowID),
		"workflow_id", cp.WorkflowID,
		"cursor", strconv.Itoa(cp.Cursor),
		"state", string(state),
		"updated_at", time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("runbook/redis: save checkpoint: %w", err)
	}
	return nil
}

// DeleteCheckpoint removes the checkpoint for a workflow ID.
func (s *Store) DeleteCheckpoint(ctx context.Context, workflowID string) error {
	if err := s.client.Del(ctx, checkpointKey(workflowID)).Err(); err != nil {
		return fmt.Errorf("runbook/redis: delete checkpoint: %w", err)
	}
	return nil
}
