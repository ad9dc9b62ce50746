// Package memory implements store.Store entirely in memory.
// Safe for concurrent access. Intended for unit testing and development;
// it provides atomicity but, by nature, no durability across restarts.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/checkpoint"
	"github.com/xraph/runbook/id"
	"github.com/xraph/runbook/lease"
	"github.com/xraph/runbook/ledger"
)

// Compile-time interface checks. The aggregate store.Store cannot be
// asserted here without an import cycle, so each subsystem is verified.
var (
	_ ledger.Store     = (*Store)(nil)
	_ checkpoint.Store = (*Store)(nil)
	_ lease.Store      = (*Store)(nil)
)

// Store is a fully in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	invocations map[string]*ledger.Invocation    // key: fingerprint
	checkpoints map[string]*checkpoint.Checkpoint // key: workflow ID
	leases      map[string]*lease.Lease           // key: workflow ID
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		invocations: make(map[string]*ledger.Invocation),
		checkpoints: make(map[string]*checkpoint.Checkpoint),
		leases:      make(map[string]*lease.Lease),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Ledger Store
// ──────────────────────────────────────────────────

// GetInvocation retrieves an invocation record by fingerprint.
func (m *Store) GetInvocation(_ context.Context, fp string) (*ledger.Invocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inv, ok := m.invocations[fp]
	if !ok {
		return nil, runbook.ErrInvocationNotFound
	}
	cp := *inv
	return &cp, nil
}

// PutInvocation creates or replaces the invocation record for its fingerprint.
func (m *Store) PutInvocation(_ context.Context, inv *ledger.Invocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *inv
	m.invocations[inv.Fingerprint] = &cp
	return nil
}

// ──────────────────────────────────────────────────
// Checkpoint Store
// ──────────────────────────────────────────────────

// LoadCheckpoint returns the checkpoint for a workflow ID.
func (m *Store) LoadCheckpoint(_ context.Context, workflowID string) (*checkpoint.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.checkpoints[workflowID]
	if !ok {
		return nil, runbook.ErrCheckpointNotFound
	}
	return cp.Clone(), nil
}

// SaveCheckpoint atomically overwrites the checkpoint for its workflow ID.
func (m *Store) SaveCheckpoint(_ context.Context, cp *checkpoint.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkpoints[cp.WorkflowID] = cp.Clone()
	return nil
}

// DeleteCheckpoint removes the checkpoint for a workflow ID.
func (m *Store) DeleteCheckpoint(_ context.Context, workflowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.checkpoints, workflowID)
	return nil
}

// ──────────────────────────────────────────────────
// Lease Store
// ──────────────────────────────────────────────────

// AcquireLease attempts to take the lease for a workflow ID.
func (m *Store) AcquireLease(_ context.Context, workflowID, holder string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.leases[workflowID]
	if ok && !existing.Expired() && existing.Holder != holder {
		return false, nil
	}

	m.leases[workflowID] = &lease.Lease{
		ID:         id.NewLeaseID(),
		WorkflowID: workflowID,
		Holder:     holder,
		ExpiresAt:  time.Now().Add(ttl),
	}
	return true, nil
}

// RenewLease extends the lease if the holder still owns it.
func (m *Store) RenewLease(_ context.Context, workflowID, holder string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.leases[workflowID]
	if !ok || existing.Expired() || existing.Holder != holder {
		return false, nil
	}
	existing.ExpiresAt = time.Now().Add(ttl)
	return true, nil
}

// ReleaseLease drops the lease if the holder owns it.
func (m *Store) ReleaseLease(_ context.Context, workflowID, holder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.leases[workflowID]
	if !ok {
		return nil
	}
	if existing.Holder != holder {
		return runbook.ErrLeaseNotHeld
	}
	delete(m.leases, workflowID)
	return nil
}

// GetLease returns the current lease for a workflow ID.
func (m *Store) GetLease(_ context.Context, workflowID string) (*lease.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	existing, ok := m.leases[workflowID]
	if !ok {
		return nil, runbook.ErrLeaseNotFound
	}
	cp := *existing
	return &cp, nil
}
