package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/id"
	"github.com/xraph/runbook/ledger"
)

// GetInvocation retrieves a ledger record by fingerprint.
func (s *Store) GetInvocation(ctx context.Context, fp string) (*ledger.Invocation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT
			fingerprint, id, workflow_id, step_name, action_name, status,
			result, error, attempts, completed_at, created_at, updated_at
		FROM runbook_invocations
		WHERE fingerprint = $1`,
		fp,
	)

	inv, err := scanInvocation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, runbook.ErrInvocationNotFound
		}
		return nil, fmt.Errorf("runbook/postgres: get invocation: %w", err)
	}
	return inv, nil
}

// PutInvocation creates or replaces the ledger record for its fingerprint.
// The upsert is a single statement, so readers see either the previous
// record or the new one, and the write is durable on return.
func (s *Store) PutInvocation(ctx context.Context, inv *ledger.Invocation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO runbook_invocations (
			fingerprint, id, workflow_id, step_name, action_name, status,
			result, error, attempts, completed_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, NOW()
		)
		ON CONFLICT (fingerprint) DO UPDATE SET
			status = EXCLUDED.status,
			result = EXCLUDED.result,
			error = EXCLUDED.error,
			attempts = EXCLUDED.attempts,
			completed_at = EXCLUDED.completed_at,
			updated_at = NOW()`,
		inv.Fingerprint, inv.ID.String(), inv.WorkflowID, inv.StepName,
		inv.ActionName, string(inv.Status),
		inv.Result, inv.Error, inv.Attempts, inv.CompletedAt, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("runbook/postgres: put invocation: %w", err)
	}
	return nil
}

func scanInvocation(row pgx.Row) (*ledger.Invocation, error) {
	var (
		inv    ledger.Invocation
		rawID  string
		status string
	)
	err := row.Scan(
		&inv.Fingerprint, &rawID, &inv.WorkflowID, &inv.StepName,
		&inv.ActionName, &status,
		&inv.Result, &inv.Error, &inv.Attempts, &inv.CompletedAt,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.ID, err = id.ParseInvocationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse invocation id %q: %w", rawID, err)
	}
	inv.Status = ledger.Status(status)
	return &inv, nil
}
