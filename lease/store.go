package lease

import (
	"context"
	"time"
)

// Store defines the persistence contract for workflow leases.
// All three mutations must be atomic per workflow ID: two concurrent
// AcquireLease calls for the same workflow ID must not both succeed with
// different holders.
type Store interface {
	// AcquireLease attempts to take the lease for workflowID. It succeeds
	// if no lease exists, the existing lease has expired, or the existing
	// lease already belongs to holder (re-entrant). Returns false without
	// error when another live holder owns the lease.
	AcquireLease(ctx context.Context, workflowID, holder string, ttl time.Duration) (bool, error)

	// RenewLease extends the lease if holder still owns it. Returns false
	// when the lease was lost (expired and taken, or never held).
	RenewLease(ctx context.Context, workflowID, holder string, ttl time.Duration) (bool, error)

	// ReleaseLease drops the lease if holder owns it. Releasing a lease
	// held by someone else returns runbook.ErrLeaseNotHeld; releasing a
	// missing lease is a no-op.
	ReleaseLease(ctx context.Context, workflowID, holder string) error

	// GetLease returns the current lease for introspection, or
	// runbook.ErrLeaseNotFound.
	GetLease(ctx context.Context, workflowID string) (*Lease, error)
}
