package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrations use only DDL accepted by both postgres and sqlite. Email
// uniqueness and the task -> owner foreign key live here so the invariants
// hold under concurrent requests, not just in application code.
var migrations = []struct {
	version    int
	statements []string
}{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				is_demo       BOOLEAN NOT NULL DEFAULT FALSE,
				created_at    TIMESTAMP NOT NULL,
				updated_at    TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id           TEXT PRIMARY KEY,
				user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title        TEXT NOT NULL,
				description  TEXT,
				due_date     TEXT,
				priority     TEXT NOT NULL DEFAULT 'Medium',
				is_completed BOOLEAN NOT NULL DEFAULT FALSE,
				manual_order INTEGER NOT NULL,
				created_at   TIMESTAMP NOT NULL,
				updated_at   TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id)`,
		},
	},
}

// migrate applies any outstanding migrations in version order.
func migrate(db *sqlx.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var current int
	if err := db.Get(&current, `SELECT COALESCE(MAX(version), 0) FROM schema_version`); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("migration %d: %w", m.version, err)
			}
		}
		if _, err := db.Exec(db.Rebind(`INSERT INTO schema_version (version) VALUES (?)`), m.version); err != nil {
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}
	}

	return nil
}
