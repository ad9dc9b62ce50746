package bunstore

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/id"
	"github.com/xraph/runbook/lease"
	"github.com/xraph/runbook/ledger"
)

// ── Invocation model ──────────────────────────────────────────────

type invocationModel struct {
	bun.BaseModel `bun:"table:runbook_invocations"`

	Fingerprint string     `bun:"fingerprint,pk"`
	ID          string     `bun:"id,notnull"`
	WorkflowID  string     `bun:"workflow_id,notnull"`
	StepName    string     `bun:"step_name,notnull"`
	ActionName  string     `bun:"action_name,notnull"`
	Status      string     `bun:"status,notnull,default:'pending'"`
	Result      []byte     `bun:"result,type:bytea"`
	Error       string     `bun:"error,notnull,default:''"`
	Attempts    int        `bun:"attempts,notnull,default:0"`
	CompletedAt *time.Time `bun:"completed_at"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

func toInvocationModel(inv *ledger.Invocation) *invocationModel {
	return &invocationModel{
		Fingerprint: inv.Fingerprint,
		ID:          inv.ID.String(),
		WorkflowID:  inv.WorkflowID,
		StepName:    inv.StepName,
		ActionName:  inv.ActionName,
		Status:      string(inv.Status),
		Result:      inv.Result,
		Error:       inv.Error,
		Attempts:    inv.Attempts,
		CompletedAt: inv.CompletedAt,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}

func fromInvocationModel(m *invocationModel) (*ledger.Invocation, error) {
	parsedID, err := id.ParseInvocationID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("runbook/bun: parse invocation id %q: %w", m.ID, err)
	}

	return &ledger.Invocation{
		Entity: runbook.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          parsedID,
		Fingerprint: m.Fingerprint,
		WorkflowID:  m.WorkflowID,
		StepName:    m.StepName,
		ActionName:  m.ActionName,
		Status:      ledger.Status(m.Status),
		Result:      m.Result,
		Error:       m.Error,
		Attempts:    m.Attempts,
		CompletedAt: m.CompletedAt,
	}, nil
}

// ── Checkpoint model ──────────────────────────────────────────────

type checkpointModel struct {
	bun.BaseModel `bun:"table:runbook_checkpoints"`

	WorkflowID string    `bun:"workflow_id,pk"`
	Cursor     int       `bun:"cursor,notnull,default:0"`
	State      []byte    `bun:"state,type:jsonb"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ── Lease model ───────────────────────────────────────────────────

type leaseModel struct {
	bun.BaseModel `bun:"table:runbook_leases"`

	WorkflowID string    `bun:"workflow_id,pk"`
	ID         string    `bun:"id,notnull"`
	Holder     string    `bun:"holder,notnull"`
	ExpiresAt  time.Time `bun:"expires_at,notnull"`
}

func fromLeaseModel(m *leaseModel) *lease.Lease {
	leaseID, _ := id.ParseLeaseID(m.ID) //nolint:errcheck // best-effort parse of a stored TypeID
	return &lease.Lease{
		ID:         leaseID,
		WorkflowID: m.WorkflowID,
		Holder:     m.Holder,
		ExpiresAt:  m.ExpiresAt,
	}
}
