// Package audit is a runbook extension that bridges lifecycle events to an
// immutable audit trail backend.
//
// Every run, step, and approval lifecycle hook emits a structured audit
// event through the [Recorder] interface. The extension assigns severity
// levels (info for normal operations, warning for denials and cancellations,
// critical for terminal failures) and rich metadata (workflow ID, step name,
// elapsed time, errors). Replayed steps are recorded too, so the trail
// distinguishes "executed" from "observed as already done".
//
// # Usage
//
//	exec := executor.New(store, actions,
//	    executor.WithExtension(audit.New(audit.RecorderFunc(
//	        func(ctx context.Context, evt *audit.AuditEvent) error {
//	            return trail.Append(ctx, evt)
//	        },
//	    ))),
//	)
//
// # Selective filtering
//
//	audit.New(recorder,
//	    audit.WithActions(
//	        audit.ActionRunFailed,
//	        audit.ActionStepFailed,
//	        audit.ActionApprovalRequested,
//	    ),
//	)
package audit
