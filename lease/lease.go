// Package lease provides per-workflow mutual exclusion. Two executors must
// never advance the same workflow ID concurrently: the ledger would still
// prevent a duplicate action effect, but progress bookkeeping could race.
// The executor therefore acquires a TTL-bounded lease on the workflow ID
// before its first step and releases it when the run ends.
//
// Different workflow IDs are fully independent and need no coordination.
package lease

import (
	"time"

	"github.com/google/uuid"

	"github.com/xraph/runbook/id"
)

// Lease records which holder currently owns a workflow ID and until when.
// An expired lease is acquirable by anyone; holders of a long run should
// renew before the TTL elapses.
type Lease struct {
	ID         id.LeaseID `json:"id"`
	WorkflowID string     `json:"workflow_id"`
	Holder     string     `json:"holder"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// Expired reports whether the lease TTL has elapsed.
func (l *Lease) Expired() bool {
	return time.Now().After(l.ExpiresAt)
}

// NewHolder returns a fresh opaque holder token. Tokens are compared for
// equality only, so a random UUID suffices.
func NewHolder() string {
	return uuid.NewString()
}
