package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/id"
	"github.com/xraph/runbook/ledger"
)

// GetInvocation retrieves a ledger record by fingerprint.
func (s *Store) GetInvocation(ctx context.Context, fp string) (*ledger.Invocation, error) {
	var (
		inv    ledger.Invocation
		rawID  string
		status string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			fingerprint, id, workflow_id, step_name, action_name, status,
			result, error, attempts, completed_at, created_at, updated_at
		FROM runbook_invocations
		WHERE fingerprint = ?`,
		fp,
	).Scan(
		&inv.Fingerprint, &rawID, &inv.WorkflowID, &inv.StepName,
		&inv.ActionName, &status,
		&inv.Result, &inv.Error, &inv.Attempts, &inv.CompletedAt,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, runbook.ErrInvocationNotFound
		}
		return nil, fmt.Errorf("runbook/sqlite: get invocation: %w", err)
	}

	inv.ID, err = id.ParseInvocationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("runbook/sqlite: parse invocation id %q: %w", rawID, err)
	}
	inv.Status = ledger.Status(status)
	return &inv, nil
}

// PutInvocation creates or replaces the ledger record for its fingerprint.
// The upsert is a single statement, so the write is atomic and durable on
// return.
func (s *Store) PutInvocation(ctx context.Context, inv *ledger.Invocation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runbook_invocations (
			fingerprint, id, workflow_id, step_name, action_name, status,
			result, error, attempts, completed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (fingerprint) DO UPDATE SET
			status = excluded.status,
			result = excluded.result,
			error = excluded.error,
			attempts = excluded.attempts,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`,
		inv.Fingerprint, inv.ID.String(), inv.WorkflowID, inv.StepName,
		inv.ActionName, string(inv.Status),
		inv.Result, inv.Error, inv.Attempts, inv.CompletedAt,
		inv.CreatedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("runbook/sqlite: put invocation: %w", err)
	}
	return nil
}
