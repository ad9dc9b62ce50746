// Package store defines the aggregate persistence interface. Each subsystem
// (ledger, checkpoint, lease) defines its own store interface; the composite
// Store composes them all. Backends: Postgres, Bun, SQLite, Redis, and
// Memory.
package store

import (
	"context"

	"github.com/xraph/runbook/checkpoint"
	"github.com/xraph/runbook/lease"
	"github.com/xraph/runbook/ledger"
)

// Store is the aggregate persistence interface. A single backend implements
// all subsystem stores plus lifecycle operations.
type Store interface {
	ledger.Store
	checkpoint.Store
	lease.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
