package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/id"
	"github.com/xraph/runbook/lease"
)

// AcquireLease attempts to take the lease for a workflow ID. The conditional
// upsert performs the holder check and the write in one statement: the
// update half only fires when the existing lease is expired or already
// belongs to the caller.
func (s *Store) AcquireLease(ctx context.Context, workflowID, holder string, ttl time.Duration) (bool, error) {
	expiresAt := time.Now().Add(ttl).UTC()

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO runbook_leases (workflow_id, id, holder, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workflow_id) DO UPDATE SET
			holder = EXCLUDED.holder,
			expires_at = EXCLUDED.expires_at
		WHERE runbook_leases.expires_at <= NOW()
		   OR runbook_leases.holder = EXCLUDED.holder`,
		workflowID, id.NewLeaseID().String(), holder, expiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("runbook/postgres: acquire lease: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RenewLease extends the lease if the holder still owns it.
func (s *Store) RenewLease(ctx context.Context, workflowID, holder string, ttl time.Duration) (bool, error) {
	expiresAt := time.Now().Add(ttl).UTC()

	tag, err := s.pool.Exec(ctx, `
		UPDATE runbook_leases
		SET expires_at = $3
		WHERE workflow_id = $1 AND holder = $2 AND expires_at > NOW()`,
		workflowID, holder, expiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("runbook/postgres: renew lease: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseLease drops the lease if the holder owns it.
func (s *Store) ReleaseLease(ctx context.Context, workflowID, holder string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM runbook_leases WHERE workflow_id = $1 AND holder = $2`,
		workflowID, holder,
	)
	if err != nil {
		return fmt.Errorf("runbook/postgres: release lease: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Nothing deleted: distinguish a foreign holder from a missing lease.
	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM runbook_leases WHERE workflow_id = $1)`,
		workflowID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("runbook/postgres: release lease check: %w", err)
	}
	if exists {
		return runbook.ErrLeaseNotHeld
	}
	return nil
}

// GetLease returns the current lease for a workflow ID.
func (s *Store) GetLease(ctx context.Context, workflowID string) (*lease.Lease, error) {
	var (
		l     lease.Lease
		rawID string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, workflow_id, holder, expires_at
		FROM runbook_leases
		WHERE workflow_id = $1`,
		workflowID,
	).Scan(&rawID, &l.WorkflowID, &l.Holder, &l.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, runbook.ErrLeaseNotFound
		}
		return nil, fmt.Errorf("runbook/postgres: get lease: %w", err)
	}

	l.ID, _ = id.ParseLeaseID(rawID) //nolint:errcheck // best-effort parse of a stored TypeID
	return &l, nil
}
