package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/id"
	"github.com/xraph/runbook/lease"
)

// AcquireLease attempts to take the lease for a workflow ID. Expiry is
// compared in Go against the stored timestamp; the conditional upsert makes
// the holder check and the write one atomic statement.
func (s *Store) AcquireLease(ctx context.Context, workflowID, holder string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runbook_leases (workflow_id, id, holder, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (workflow_id) DO UPDATE SET
			holder = excluded.holder,
			expires_at = excluded.expires_at
		WHERE runbook_leases.expires_at <= ?
		   OR runbook_leases.holder = excluded.holder`,
		workflowID, id.NewLeaseID().String(), holder, expiresAt, now,
	)
	if err != nil {
		return false, fmt.Errorf("runbook/sqlite: acquire lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("runbook/sqlite: acquire lease rows: %w", err)
	}
	return n == 1, nil
}

// RenewLease extends the lease if the holder still owns it.
func (s *Store) RenewLease(ctx context.Context, workflowID, holder string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE runbook_leases
		SET expires_at = ?
		WHERE workflow_id = ? AND holder = ? AND expires_at > ?`,
		now.Add(ttl), workflowID, holder, now,
	)
	if err != nil {
		return false, fmt.Errorf("runbook/sqlite: renew lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("runbook/sqlite: renew lease rows: %w", err)
	}
	return n == 1, nil
}

// ReleaseLease drops the lease if the holder owns it.
func (s *Store) ReleaseLease(ctx context.Context, workflowID, holder string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runbook_leases WHERE workflow_id = ? AND holder = ?`,
		workflowID, holder,
	)
	if err != nil {
		return fmt.Errorf("runbook/sqlite: release lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("runbook/sqlite: release lease rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Nothing deleted: distinguish a foreign holder from a missing lease.
	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM runbook_leases WHERE workflow_id = ?)`,
		workflowID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("runbook/sqlite: release lease check: %w", err)
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
	err := s.db.QueryRowContext(ctx, `
		SELECT id, workflow_id, holder, expires_at
		FROM runbook_leases
		WHERE workflow_id = ?`,
		workflowID,
	).Scan(&rawID, &l.WorkflowID, &l.Holder, &l.ExpiresAt)
	if err != nil {
		if isNoRows(err) {
			return nil, runbook.ErrLeaseNotFound
		}
		return nil, fmt.Errorf("runbook/sqlite: get lease: %w", err)
	}

	l.ID, _ = id.ParseLeaseID(rawID) //nolint:errcheck // best-effort parse of a stored TypeID
	return &l, nil
}
