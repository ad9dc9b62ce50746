//go:build integration

package bunstore_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/xraph/runbook"
	"github.com/xraph/runbook/checkpoint"
	"github.com/xraph/runbook/id"
	"github.com/xraph/runbook/ledger"
	bunstore "github.com/xraph/runbook/store/bun"
)

// setupTestStore creates a Postgres container and returns a connected Bun Store.
func setupTestStore(t *testing.T) *bunstore.Store {
	t.Helper()

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("runbook_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if termErr := container.Terminate(ctx); termErr != nil {
			t.Logf("terminate container: %v", termErr)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
	db := bun.NewDB(sqldb, pgdialect.New())

	t.Cleanup(func() {
		_ = db.Close()
	})

	store := bunstore.New(db, bunstore.WithLogger(slog.Default()))

	if migErr := store.Migrate(ctx); migErr != nil {
		t.Fatalf("migrate: %v", migErr)
	}

	return store
}

// ──────────────────────────────────────────────────
// Lifecycle tests
// ──────────────────────────────────────────────────

func TestStore_Ping(t *testing.T) {
	s := setupTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestStore_MigrateIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	// Second migrate should be a no-op.
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

// ──────────────────────────────────────────────────
// Ledger Store tests
// ──────────────────────────────────────────────────

func TestLedgerStore_PutAndGet(t *testing.T) {
	s := setupTestStore(t)
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
		Attempts:    1,
		CompletedAt: &now,
	}

	if err := s.PutInvocation(ctx, inv); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.GetInvocation(ctx, "fp-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID.String() != inv.ID.String() {
		t.Fatalf("expected id %s, got %s", inv.ID, got.ID)
	}
	if got.Status != ledger.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if string(got.Result) != `{"ok":true}` {
		t.Fatalf("expected cached result, got %s", got.Result)
	}
	if got.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
}

func TestLedgerStore_PutUpserts(t *testing.T) {
	s := setupTestStore(t)
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
		t.Fatalf("get: %v", err)
	}
	if got.Status != ledger.StatusFailed || got.Attempts != 2 {
		t.Fatalf("expected failed/2, got %s/%d", got.Status, got.Attempts)
	}
}

func TestLedgerStore_NotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetInvocation(context.Background(), "missing")
	if !errors.Is(err, runbook.ErrInvocationNotFound) {
		t.Fatalf("expected ErrInvocationNotFound, got: %v", err)
	}
}

// ──────────────────────────────────────────────────
// Checkpoint Store tests
// ──────────────────────────────────────────────────

func TestCheckpointStore_SaveLoadDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	cp := &checkpoint.Checkpoint{
		WorkflowID: "incident-INC-12345",
		Cursor:     3,
		State: map[string]json.RawMessage{
			"analyze_logs": json.RawMessage(`{"errors":14}`),
		},
	}
	if err := s.SaveCheckpoint(ctx, cp); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.LoadCheckpoint(ctx, "incident-INC-12345")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Cursor != 3 {
		t.Fatalf("expected cursor 3, got %d", got.Cursor)
	}
	if string(got.State["analyze_logs"]) != `{"errors":14}` {
		t.Fatalf("expected state to round-trip, got %s", got.State["analyze_logs"])
	}

	// Overwrite — upsert.
	cp.Cursor = 4
	if err = s.SaveCheckpoint(ctx, cp); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = s.LoadCheckpoint(ctx, "incident-INC-12345")
	if err != nil {
		t.Fatalf("load after overwrite: %v", err)
	}
	if got.Cursor != 4 {
		t.Fatalf("expected cursor 4, got %d", got.Cursor)
	}

	if err = s.DeleteCheckpoint(ctx, "incident-INC-12345"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err = s.LoadCheckpoint(ctx, "incident-INC-12345"); !errors.Is(err, runbook.ErrCheckpointNotFound) {
		t.Fatalf("expected ErrCheckpointNotFound, got: %v", err)
	}
}

// ──────────────────────────────────────────────────
// Lease Store tests
// ──────────────────────────────────────────────────

func TestLeaseStore_AcquireContention(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	acquired, err := s.AcquireLease(ctx, "wf", "holder-a", time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !acquired {
		t.Fatal("expected acquired")
	}

	acquired, err = s.AcquireLease(ctx, "wf", "holder-b", time.Minute)
	if err != nil {
		t.Fatalf("acquire by holder-b: %v", err)
	}
	if acquired {
		t.Fatal("expected not acquired by holder-b")
	}

	acquired, err = s.AcquireLease(ctx, "wf", "holder-a", time.Minute)
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	if !acquired {
		t.Fatal("expected re-acquired by holder-a")
	}
}

func TestLeaseStore_ExpiryRenewRelease(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	acquired, err := s.AcquireLease(ctx, "wf", "holder-a", 1*time.Millisecond)
	if err != nil || !acquired {
		t.Fatalf("acquire = (%v, %v)", acquired, err)
	}

	time.Sleep(50 * time.Millisecond)

	// Expired: renew fails, a new holder can take over.
	renewed, err := s.RenewLease(ctx, "wf", "holder-a", time.Minute)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if renewed {
		t.Fatal("expected renew of expired lease to fail")
	}

	acquired, err = s.AcquireLease(ctx, "wf", "holder-b", time.Minute)
	if err != nil || !acquired {
		t.Fatalf("acquire after expiry = (%v, %v)", acquired, err)
	}

	l, err := s.GetLease(ctx, "wf")
	if err != nil {
		t.Fatalf("get lease: %v", err)
	}
	if l.Holder != "holder-b" {
		t.Fatalf("expected holder-b, got %s", l.Holder)
	}

	if err = s.ReleaseLease(ctx, "wf", "holder-a"); !errors.Is(err, runbook.ErrLeaseNotHeld) {
		t.Fatalf("expected ErrLeaseNotHeld, got: %v", err)
	}
	if err = s.ReleaseLease(ctx, "wf", "holder-b"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err = s.GetLease(ctx, "wf"); !errors.Is(err, runbook.ErrLeaseNotFound) {
		t.Fatalf("expected ErrLeaseNotFound, got: %v", err)
	}
}
