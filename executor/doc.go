// Package executor orchestrates crash-resilient workflow runs.
//
// A run is an ordered list of named steps over a stable workflow ID. The
// executor loads any existing checkpoint, takes the per-workflow lease, and
// executes the remaining steps strictly sequentially. Every action flows
// through the invocation ledger, so re-invoking a run after a crash or
// failure repeats no already-completed side effect:
//
//	exec := executor.New(store, actions)
//	state, err := exec.Run(ctx, "incident-INC-12345", steps)
//	// ... process dies, pod restarts ...
//	state, err = exec.Run(ctx, "incident-INC-12345", steps) // resumes
//
// Two layers cooperate on resume. The checkpoint is the fast-path: it
// records the cursor so completed steps are skipped without ledger lookups.
// The ledger is the correctness layer: even when a checkpoint write was
// lost, the fingerprint lookup returns the cached result instead of
// re-running the action.
//
// Failure of step i stops the run: the cursor does not advance, later
// steps never start, and the caller receives a *StepFailedError naming the
// step. Re-running is always safe; pair with the retry package for a
// supervised attempt loop.
package executor
