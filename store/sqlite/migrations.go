package sqlite

import (
	"context"
	"fmt"
)

// migration is one schema change, applied at most once and tracked by name.
type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "001_create_invocations",
		sql: `
			CREATE TABLE IF NOT EXISTS runbook_invocations (
				fingerprint     TEXT PRIMARY KEY,
				id              TEXT NOT NULL,
				workflow_id     TEXT NOT NULL,
				step_name       TEXT NOT NULL,
				action_name     TEXT NOT NULL,
				status          TEXT NOT NULL DEFAULT 'pending',
				result          BLOB,
				error           TEXT NOT NULL DEFAULT '',
				attempts        INTEGER NOT NULL DEFAULT 0,
				completed_at    DATETIME,
				created_at      DATETIME NOT NULL,
				updated_at      DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_runbook_invocations_workflow
				ON runbook_invocations (workflow_id);`,
	},
	{
		name: "002_create_checkpoints",
		sql: `
			CREATE TABLE IF NOT EXISTS runbook_checkpoints (
				workflow_id     TEXT PRIMARY KEY,
				cursor          INTEGER NOT NULL DEFAULT 0,
				state           TEXT NOT NULL DEFAULT '{}',
				updated_at      DATETIME NOT NULL
			);`,
	},
	{
		name: "003_create_leases",
		sql: `
			CREATE TABLE IF NOT EXISTS runbook_leases (
				workflow_id     TEXT PRIMARY KEY,
				id              TEXT NOT NULL,
				holder          TEXT NOT NULL,
				expires_at      DATETIME NOT NULL
			);`,
	},
}

// Migrate applies all pending schema migrations in order.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runbook_migrations (
			name TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("runbook/sqlite: create migrations table: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		err = s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM runbook_migrations WHERE name = ?)`,
			m.name,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("runbook/sqlite: check migration %s: %w", m.name, err)
		}
		if applied {
			continue
		}

		if _, execErr := s.db.ExecContext(ctx, m.sql); execErr != nil {
			return fmt.Errorf("runbook/sqlite: execute migration %s: %w", m.name, execErr)
		}

		if _, recErr := s.db.ExecContext(ctx,
			`INSERT INTO runbook_migrations (name) VALUES (?)`, m.name,
		); recErr != nil {
			return fmt.Errorf("runbook/sqlite: record migration %s: %w", m.name, recErr)
		}

		s.logger.Info("applied migration", "name", m.name)
	}

	return nil
}
