package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/id"
	"github.com/xraph/runbook/ledger"
)

// GetInvocation retrieves a ledger record by fingerprint.
func (s *Store) GetInvocation(ctx context.Context, fp string) (*ledger.Invocation, error) {
	vals, err := s.client.HGetAll(ctx, invocationKey(fp)).Result()
	if err != nil {
		return nil, fmt.Errorf("runbook/redis: get invocation: %w", err)
	}
	if len(vals) == 0 {
		return nil, runbook.ErrInvocationNotFound
	}
	return mapToInvocation(vals)
}

// PutInvocation creates or replaces the ledger record for its fingerprint.
// A single HSET carries every field, so readers see either the previous
// record or the new one.
func (s *Store) PutInvocation(ctx context.Context, inv *ledger.Invocation) error {
	fields := invocationToMap(inv)
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.client.HSet(ctx, invocationKey(inv.Fingerprint), fields).Err(); err != nil {
		return fmt.Errorf("runbook/redis: put invocation: %w", err)
	}
	return nil
}

func invocationToMap(inv *ledger.Invocation) map[string]interface{} {
	m := map[string]interface{}{
		"id":          inv.ID.String(),
		"fingerprint": inv.Fingerprint,
		"workflow_id": inv.WorkflowID,
		"step_name":   inv.StepName,
		"action_name": inv.ActionName,
		"status":      string(inv.Status),
		"result":      string(inv.Result),
		"error":       inv.Error,
		"attempts":    strconv.Itoa(inv.Attempts),
		"created_at":  inv.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  inv.UpdatedAt.Format(time.RFC3339Nano),
	}
	if inv.CompletedAt != nil {
		m["completed_at"] = inv.CompletedAt.Format(time.RFC3339Nano)
	}
	return m
}

func mapToInvocation(m map[string]string) (*ledger.Invocation, error) {
	invID, err := id.ParseInvocationID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("runbook/redis: parse invocation id: %w", err)
	}

	attempts, _ := strconv.Atoi(m["attempts"]) //nolint:errcheck // best-effort parse from trusted Redis data

	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"]) //nolint:errcheck // best-effort parse from trusted Redis data
	updatedAt, _ := time.Parse(time.RFC3339Nano, m["updated_at"]) //nolint:errcheck // best-effort parse from trusted Redis data

	inv := &ledger.Invocation{
		Entity: runbook.Entity{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		ID:          invID,
		Fingerprint: m["fingerprint"],
		WorkflowID:  m["workflow_id"],
		StepName:    m["step_name"],
		ActionName:  m["action_name"],
		Status:      ledger.Status(m["status"]),
		Error:       m["error"],
		Attempts:    attempts,
	}

	if v := m["result"]; v != "" {
		inv.Result = []byte(v)
	}
	if v := m["completed_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		inv.CompletedAt = &t
	}

	return inv, nil
}
