// Package ledger implements the idempotency ledger: a durable record mapping
// an action invocation's fingerprint to its previously computed result.
//
// The ledger is the correctness layer of Runbook. Checkpoints are only a
// fast path for skipping obviously-done steps; the ledger is consulted
// before every action execution independently, so even a missed checkpoint
// save cannot cause a duplicate externally-visible effect.
//
// # State Machine
//
// An [Invocation] moves through these states:
//
//	(absent) → pending → completed   (terminal, immutable)
//	(absent) → pending → failed → pending → ...
//
// # Usage
//
//	lg := ledger.New(store)
//	result, err := lg.GetOrExecute(ctx, inv, func(ctx context.Context) ([]byte, error) {
//	    return restartPod(ctx, podName)
//	})
package ledger
