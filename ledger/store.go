package ledger

import "context"

// Store defines the persistence contract for the idempotency ledger.
type Store interface {
	// GetInvocation retrieves an invocation record by fingerprint.
	// Returns runbook.ErrInvocationNotFound if no record exists.
	GetInvocation(ctx context.Context, fp string) (*Invocation, error)

	// PutInvocation creates or replaces the invocation record keyed by its
	// fingerprint. The write must be atomic: a concurrent reader sees either
	// the previous record or the new one, never a partial write, and the
	// write must be durable before PutInvocation returns.
	PutInvocation(ctx context.Context, inv *Invocation) error
}
