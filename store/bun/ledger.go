package bunstore

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/ledger"
)

// GetInvocation retrieves a ledger record by fingerprint.
func (s *Store) GetInvocation(ctx context.Context, fp string) (*ledger.Invocation, error) {
	m := new(invocationModel)
	err := s.db.NewSelect().Model(m).
		Where("fingerprint = ?", fp).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, runbook.ErrInvocationNotFound
		}
		return nil, fmt.Errorf("runbook/bun: get invocation: %w", err)
	}
	return fromInvocationModel(m)
}

// PutInvocation creates or replaces the ledger record for its fingerprint.
// A single upsert statement keeps the write atomic and durable on return.
func (s *Store) PutInvocation(ctx context.Context, inv *ledger.Invocation) error {
	m := toInvocationModel(inv)
	m.UpdatedAt = time.Now().UTC()

	_, err := s.db.NewInsert().Model(m).
		On("CONFLICT (fingerprint) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("result = EXCLUDED.result").
		Set("error = EXCLUDED.error").
		Set("attempts = EXCLUDED.attempts").
		Set("completed_at = EXCLUDED.completed_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("runbook/bun: put invocation: %w", err)
	}
	return nil
}
