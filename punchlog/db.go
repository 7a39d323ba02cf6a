// Package punchlog implements the durable punch log on SQLite: an
// append-only table of closed breaks and a live view of open breaks used for
// cold-start replay and reconciliation.
package punchlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// OpenDB opens a SQLite database at the given path.
// If path is ":memory:", uses an in-memory database.
// Sets WAL mode and runs migrations automatically.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL keeps webhook reads fast while the background writer appends.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS punch_logs (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		member_id TEXT NOT NULL,
		break_code TEXT NOT NULL,
		minutes_spent INTEGER NOT NULL,
		end_time TEXT NOT NULL,
		outcome TEXT NOT NULL,
		chat_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_punch_logs_date ON punch_logs (date)`,
	`CREATE INDEX IF NOT EXISTS idx_punch_logs_member ON punch_logs (date, member_id, break_code)`,
	`CREATE TABLE IF NOT EXISTS live_breaks (
		member_id TEXT NOT NULL,
		date TEXT NOT NULL,
		id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		break_code TEXT NOT NULL,
		expected_minutes INTEGER NOT NULL,
		chat_id TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (member_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS punch_logs_archive (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		member_id TEXT NOT NULL,
		break_code TEXT NOT NULL,
		minutes_spent INTEGER NOT NULL,
		end_time TEXT NOT NULL,
		outcome TEXT NOT NULL,
		chat_id TEXT NOT NULL DEFAULT '',
		archived_at TEXT NOT NULL
	)`,
}

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
