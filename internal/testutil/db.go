// Package testutil provides shared helpers for package tests.
package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/taskdeck/taskdeck-go/internal/repository"
)

// NewTestDB creates an in-memory sqlite database with all migrations
// applied, closed automatically when the test completes.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := repository.NewDB("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})

	return db
}
