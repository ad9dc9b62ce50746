// Package bunstore implements store.Store with the Bun ORM on the
// PostgreSQL dialect. It is the backend of choice when the surrounding
// application already manages a *bun.DB.
//
// Usage:
//
//	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
//	db := bun.NewDB(sqldb, pgdialect.New())
//	s := bunstore.New(db)
//	if err := s.Migrate(ctx); err != nil { ... }
package bunstore
