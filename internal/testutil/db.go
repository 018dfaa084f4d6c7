package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"sportstrivia/internal/database"
)

// SetupTestDB opens a fresh SQLite database with the full schema in a
// temporary directory.
func SetupTestDB(t *testing.T) *database.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Type: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.CreateSchema(ctx); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}
