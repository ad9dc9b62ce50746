package sqlite_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/checkpoint"
	"github.com/xraph/runbook/id"
	"github.com/xraph/runbook/ledger"
	"github.com/xraph/runbook/store/sqlite"
)

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.New(filepath.Join(t.TempDir(), "runbook.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestStore_MigrateIdempotent(t *testing.T) {
	s := setupStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestInvocation_PutAndGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	inv := &ledger.Invocation{
		Entity:      runbook.NewEntity(),
		ID:          id.NewInvocationID(),
		Fingerprint: "fp-1",
		WorkflowID:  "incident-INC-12345",
		StepName:    "apply_fix",
		ActionName:  "restart_pod",
		Status:      ledger.StatusCompleted,
		Result:      []byte(`{"ok":true}`),
		Attempts:    2,
		CompletedAt: &now,
	}
	if err := s.PutInvocation(ctx, inv); err != nil {
		t.Fatalf("PutInvocation: %v", err)
	}

	got, err := s.GetInvocation(ctx, "fp-1")
	if err != nil {
		t.Fatalf("GetInvocation: %v", err)
	}
	if got.ID.String() != inv.ID.String() {
		t.Errorf("id = %s, want %s", got.ID, inv.ID)
	}
	if got.Status != ledger.StatusCompleted || string(got.Result) != `{"ok":true}` {
		t.Errorf("status/result = %s/%s", got.Status, got.Result)
	}
	if got.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", got.Attempts)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not round-tripped")
	}
}

func TestInvocation_PutUpserts(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	inv := &ledger.Invocation{
		Entity:      runbook.NewEntity(),
		ID:          id.NewInvocationID(),
		Fingerprint: "fp-1",
		WorkflowID:  "wf-1",
		StepName:    "apply_fix",
		ActionName:  "restart_pod",
		Status:      ledger.StatusPending,
		Attempts:    1,
	}
	if err := s.PutInvocation(ctx, inv); err != nil {
		t.Fatalf("put pending: %v", err)
	}

	inv.Status = ledger.StatusFailed
	inv.Error = "kubelet unreachable"
	inv.Attempts = 2
	if err := s.PutInvocation(ctx, inv); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := s.GetInvocation(ctx, "fp-1")
	if err != nil {
		t.Fatalf("GetInvocation: %v", err)
	}
	if got.Status != ledger.StatusFailed || got.Error != "kubelet unreachable" || got.Attempts != 2 {
		t.Errorf("got %s/%q/%d", got.Status, got.Error, got.Attempts)
	}
}

func TestInvocation_NotFound(t *testing.T) {
	s := setupStore(t)
	_, err := s.GetInvocation(context.Background(), "missing")
	if !errors.Is(err, runbook.ErrInvocationNotFound) {
		t.Errorf("err = %v, want ErrInvocationNotFound", err)
	}
}

func TestCheckpoint_SaveLoadDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	cp := &checkpoint.Checkpoint{
		WorkflowID: "incident-INC-12345",
		Cursor:     3,
		State: map[string]json.RawMessage{
			"analyze_logs": json.RawMessage(`{"errors":14}`),
		},
	}
	if err := s.SaveCheckpoint(ctx, cp); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	got, err := s.LoadCheckpoint(ctx, "incident-INC-12345")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if got.Cursor != 3 || string(got.State["analyze_logs"]) != `{"errors":14}` {
		t.Errorf("cursor=%d state=%s", got.Cursor, got.State["analyze_logs"])
	}

	// Overwrite advances the cursor.
	cp.Cursor = 4
	if err := s.SaveCheckpoint(ctx, cp); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.LoadCheckpoint(ctx, "incident-INC-12345")
	if got.Cursor != 4 {
		t.Errorf("cursor = %d, want 4", got.Cursor)
	}

	if err := s.DeleteCheckpoint(ctx, "incident-INC-12345"); err != nil {
		t.Fatalf("DeleteCheckpoint: %v", err)
	}
	if _, err := s.LoadCheckpoint(ctx, "incident-INC-12345"); !errors.Is(err, runbook.ErrCheckpointNotFound) {
		t.Errorf("after delete err = %v, want ErrCheckpointNotFound", err)
	}
	// Deleting again is a no-op.
	if err := s.DeleteCheckpoint(ctx, "incident-INC-12345"); err != nil {
		t.Errorf("second DeleteCheckpoint: %v", err)
	}
}

func TestLease_AcquireContention(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ok, err := s.AcquireLease(ctx, "wf", "holder-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = s.AcquireLease(ctx, "wf", "holder-b", time.Minute)
	if err != nil {
		t.Fatalf("contended acquire: %v", err)
	}
	if ok {
		t.Error("second holder acquired a live lease")
	}

	// Re-entrant for the same holder.
	ok, err = s.AcquireLease(ctx, "wf", "holder-a", time.Minute)
	if err != nil || !ok {
		t.Errorf("re-entrant acquire = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestLease_ExpiryAndRenew(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if ok, _ := s.AcquireLease(ctx, "wf", "holder-a", time.Millisecond); !ok {
		t.Fatal("acquire failed")
	}
	time.Sleep(10 * time.Millisecond)

	if ok, _ := s.RenewLease(ctx, "wf", "holder-a", time.Minute); ok {
		t.Error("renewed an expired lease")
	}
	if ok, _ := s.AcquireLease(ctx, "wf", "holder-b", time.Minute); !ok {
		t.Error("could not acquire an expired lease")
	}
	if ok, _ := s.RenewLease(ctx, "wf", "holder-b", time.Minute); !ok {
		t.Error("live holder could not renew")
	}
}

func TestLease_ReleaseAndGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if ok, _ := s.AcquireLease(ctx, "wf", "holder-a", time.Minute); !ok {
		t.Fatal("acquire failed")
	}

	l, err := s.GetLease(ctx, "wf")
	if err != nil {
		t.Fatalf("GetLease: %v", err)
	}
	if l.Holder != "holder-a" || l.WorkflowID != "wf" {
		t.Errorf("lease = %+v", l)
	}
	if l.Expired() {
		t.Error("fresh lease reports expired")
	}

	if err := s.ReleaseLease(ctx, "wf", "holder-b"); !errors.Is(err, runbook.ErrLeaseNotHeld) {
		t.Errorf("foreign release err = %v, want ErrLeaseNotHeld", err)
	}
	if err := s.ReleaseLease(ctx, "wf", "holder-a"); err != nil {
		t.Fatalf("ReleaseLease: %v", err)
	}
	if _, err := s.GetLease(ctx, "wf"); !errors.Is(err, runbook.ErrLeaseNotFound) {
		t.Errorf("after release err = %v, want ErrLeaseNotFound", err)
	}
	// Releasing a missing lease is a no-op.
	if err := s.ReleaseLease(ctx, "wf", "holder-a"); err != nil {
		t.Errorf("release of missing lease: %v", err)
	}
}
