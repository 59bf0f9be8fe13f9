// Package sqlite provides a SQLite-backed implementation of driven.MaterialStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Material records live in a single materials table; artifact paths and quiz
// content are stored as JSON text columns and timestamps as Unix nanoseconds.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.studypipe/data/materials.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. Update runs inside a transaction.
package sqlite
