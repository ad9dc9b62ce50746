// Package sqlite implements store.Store on SQLite via database/sql and
// mattn/go-sqlite3. It suits single-node deployments and operator laptops:
// the whole store is one file, and SQLite's single-writer model gives the
// lease operations their atomicity.
//
// Usage:
//
//	s, err := sqlite.New("/var/lib/runbook/runbook.db")
//	if err != nil { ... }
//	defer s.Close()
//	if err := s.Migrate(ctx); err != nil { ... }
package sqlite
