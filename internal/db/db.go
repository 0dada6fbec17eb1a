// Package db provides SQLite persistence for the tempo scheduler.
//
// The database is stored at ~/.tempo/tempo.db by default.
// Use Open() to connect and Init() to create the schema.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS timeblocks (
	uuid TEXT PRIMARY KEY,
	status INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	day_frequency INTEGER NOT NULL,
	duration INTEGER NOT NULL,
	start INTEGER,
	day_start INTEGER
);

CREATE TABLE IF NOT EXISTS tasks (
	uuid TEXT PRIMARY KEY,
	timeblock_uuid TEXT,
	name TEXT NOT NULL,
	description TEXT,
	due_date INTEGER,
	priority INTEGER NOT NULL,
	status INTEGER NOT NULL,
	goal_spec INTEGER NOT NULL,
	FOREIGN KEY(timeblock_uuid) REFERENCES timeblocks(uuid) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS habit_entries (
	task_uuid TEXT,
	date TEXT,
	PRIMARY KEY(task_uuid, date),
	FOREIGN KEY(task_uuid) REFERENCES tasks(uuid) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_tasks_timeblock ON tasks(timeblock_uuid);
CREATE INDEX IF NOT EXISTS idx_habit_entries_task ON habit_entries(task_uuid);
`

// DB wraps a SQL database connection with scheduler-specific operations.
type DB struct {
	*sql.DB
}

// DefaultPath returns the default database path (~/.tempo/tempo.db)
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".tempo", "tempo.db"), nil
}

// Open opens or creates the database at the given path
func Open(path string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Cascade deletes depend on this
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// Init creates the schema.
func (db *DB) Init() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
