package bunstore

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/id"
	"github.com/xraph/runbook/lease"
)

// AcquireLease attempts to take the lease for a workflow ID. The conditional
// upsert fires its update half only when the existing lease is expired or
// already belongs to the caller, so the holder check and the write are one
// atomic statement.
func (s *Store) AcquireLease(ctx context.Context, workflowID, holder string, ttl time.Duration) (bool, error) {
	m := &leaseModel{
		WorkflowID: workflowID,
		ID:         id.NewLeaseID().String(),
		Holder:     holder,
		ExpiresAt:  time.Now().Add(ttl).UTC(),
	}

	res, err := s.db.NewInsert().Model(m).
		On("CONFLICT (workflow_id) DO UPDATE").
		Set("holder = EXCLUDED.holder").
		Set("expires_at = EXCLUDED.expires_at").
		Where("runbook_leases.expires_at <= NOW() OR runbook_leases.holder = EXCLUDED.holder").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("runbook/bun: acquire lease: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	return rows == 1, nil
}

// RenewLease extends the lease if the holder still owns it.
func (s *Store) RenewLease(ctx context.Context, workflowID, holder string, ttl time.Duration) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*leaseModel)(nil)).
		Set("expires_at = ?", time.Now().Add(ttl).UTC()).
		Where("workflow_id = ?", workflowID).
		Where("holder = ?", holder).
		Where("expires_at > NOW()").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("runbook/bun: renew lease: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	return rows == 1, nil
}

// ReleaseLease drops the lease if the holder owns it.
func (s *Store) ReleaseLease(ctx context.Context, workflowID, holder string) error {
	res, err := s.db.NewDelete().
		TableExpr("runbook_leases").
		Where("workflow_id = ?", workflowID).
		Where("holder = ?", holder).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("runbook/bun: release lease: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 1 {
		return nil
	}

	// Nothing deleted: distinguish a foreign holder from a missing lease.
	exists, err := s.db.NewSelect().
		Model((*leaseModel)(nil)).
		Where("workflow_id = ?", workflowID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("runbook/bun: release lease check: %w", err)
	}
	if exists {
		return runbook.ErrLeaseNotHeld
	}
	return nil
}

// GetLease returns the current lease for a workflow ID.
func (s *Store) GetLease(ctx context.Context, workflowID string) (*lease.Lease, error) {
	m := new(leaseModel)
	err := s.db.NewSelect().Model(m).
		Where("workflow_id = ?", workflowID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, runbook.ErrLeaseNotFound
		}
		return nil, fmt.Errorf("runbook/bun: get lease: %w", err)
	}
	return fromLeaseModel(m), nil
}
