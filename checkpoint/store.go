package checkpoint

import "context"

// Store defines the persistence contract for workflow checkpoints.
type Store interface {
	// LoadCheckpoint returns the most recently saved checkpoint for the
	// workflow ID, or runbook.ErrCheckpointNotFound for a fresh workflow.
	LoadCheckpoint(ctx context.Context, workflowID string) (*Checkpoint, error)

	// SaveCheckpoint atomically overwrites the checkpoint for its workflow
	// ID. A reader must never observe a checkpoint whose cursor and state
	// are mutually inconsistent.
	SaveCheckpoint(ctx context.Context, cp *Checkpoint) error

	// DeleteCheckpoint removes the checkpoint so a workflow can restart
	// from scratch. Never invoked by the executor itself; deletion is a
	// caller decision. Deleting a missing checkpoint is not an error.
	DeleteCheckpoint(ctx context.Context, workflowID string) error
}
