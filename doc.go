// Package runbook provides crash-resilient, idempotent execution of ordered
// remediation workflows. A runbook is a fixed sequence of named steps, each
// bound to a side-effecting action (restart a pod, set a memory limit). The
// executor persists progress after every step and records every action
// invocation in an idempotency ledger, so a process crash followed by a
// re-invocation with the same workflow ID resumes from the first incomplete
// step without repeating any completed action.
//
// Runbook is a library, not a service. Wire a store, register actions, and
// call Run. Retrying is the caller's job and is always safe:
//
//	reg := action.NewRegistry()
//	reg.MustRegister(&action.Definition{
//	    Name:    "restart_pod",
//	    Safety:  action.SafetySafe,
//	    Handler: restartPod,
//	})
//
//	exec := executor.New(reg, memory.New())
//	state, err := exec.Run(ctx, "incident-INC-12345", []executor.Step{
//	    {Name: "analyze_logs", Action: "analyze_logs"},
//	    {Name: "apply_fix", Action: "restart_pod"},
//	})
//
// # Guarantees
//
// For a given workflow ID the step order is total and the cursor never moves
// backwards. For a given invocation fingerprint the underlying action takes
// effect at most once; later observers see the identical cached result. Both
// guarantees hold across process restarts because the ledger — not just the
// checkpoint — is consulted before every action.
//
// # Architecture
//
// Runbook follows a composable store pattern: ledger, checkpoint, and lease
// each define their own store interface and a single backend (Postgres, Bun,
// SQLite, Redis, or Memory) implements all of them.
//
// Stored records use TypeID — type-prefixed, K-sortable, UUIDv7-based
// identifiers. The workflow ID itself stays a caller-supplied stable string.
package runbook
