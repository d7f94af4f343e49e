// Package history records executed queries in a local SQLite database.
//
// Entries are keyed by ULID, so ordering by id is ordering by execution time.
// The database runs in WAL mode with a single connection; SQLite allows only one
// writer and the CLI never needs more.
package history
