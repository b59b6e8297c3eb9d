// Package testdb opens in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/emberline/guildhall/infrastructure/persistence"
	"github.com/emberline/guildhall/internal/database"
)

// New returns a migrated in-memory database that is closed when the test ends.
func New(t *testing.T) database.Database {
	t.Helper()
	db := NewPlain(t)
	if err := persistence.AutoMigrate(db); err != nil {
		t.Fatalf("testdb.New: auto migrate: %v", err)
	}
	return db
}

// NewPlain returns an empty in-memory database.
func NewPlain(t *testing.T) database.Database {
	t.Helper()
	db, err := database.NewDatabase(context.Background(), "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("testdb.NewPlain: open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
