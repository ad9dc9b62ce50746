package action

import (
	"context"
	"encoding/json"
)

// Approver decides whether an approval-gated action may execute. Cached
// ledger results never re-consult the Approver: replay causes no new side
// effect, so there is nothing to approve.
type Approver interface {
	// Approve returns true to allow the execution. A false return fails
	// the step with runbook.ErrApprovalDenied and no side effect occurs.
	Approve(ctx context.Context, workflowID string, def *Definition, params json.RawMessage) (bool, error)
}

// ApproverFunc adapts a plain function to the Approver interface.
type ApproverFunc func(ctx context.Context, workflowID string, def *Definition, params json.RawMessage) (bool, error)

// Approve implements Approver.
func (f ApproverFunc) Approve(ctx context.Context, workflowID string, def *Definition, params json.RawMessage) (bool, error) {
	return f(ctx, workflowID, def, params)
}
