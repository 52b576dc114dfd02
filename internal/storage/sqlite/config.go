// Package sqlite implements the single-file SQLite store for match data.
package sqlite

// Config holds SQLite store configuration.
type Config struct {
	// Path is the database file path, e.g. "odi_cricket.db". The file is
	// created on first open.
	Path string

	// ForeignKeys turns on PRAGMA foreign_keys for the connection. The
	// innings -> matches reference is declared but left unenforced by default,
	// so deliveries still land when their match row is rejected.
	ForeignKeys bool
}
