// Package hook defines the extension system for Runbook.
//
// Extensions are notified of lifecycle events and can react to them —
// recording metrics, paging an on-call rotation, writing audit logs, etc.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnStepCompleted(ctx context.Context, workflowID, stepName string, elapsed time.Duration) error {
//	    log.Printf("%s/%s completed in %s", workflowID, stepName, elapsed)
//	    return nil
//	}
//
// # Run Lifecycle Hooks
//
//   - [RunStarted] — a run began with no prior checkpoint
//   - [RunResumed] — a run picked up from an existing checkpoint
//   - [RunCompleted] — all steps finished successfully
//   - [RunFailed] — a step failed and the run stopped
//   - [RunCancelled] — the run stopped at a step boundary on cancellation
//
// # Step Lifecycle Hooks
//
//   - [StepStarted] — a step is about to execute
//   - [StepCompleted] — a step's action finished successfully
//   - [StepSkipped] — a step's result was served from the ledger
//   - [StepFailed] — a step's action failed
//
// # Other Hooks
//
//   - [ApprovalRequested] — an approval-gated action's decision was made
//   - [Shutdown] — the executor is shutting down gracefully
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package hook
