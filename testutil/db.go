package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/storage/database"
)

// PrepareDB opens, migrates and empties the test database.
// The test is skipped unless TEST_DATABASE_HOST is set.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()
	if os.Getenv("TEST_DATABASE_HOST") == "" {
		t.Skip("TEST_DATABASE_HOST not set: skipping postgres tests")
	}
	t.Setenv("ENV", "TEST")
	conf := core.NewConfig()

	if err := database.CreateIfNotExist(context.Background(), conf); err != nil {
		t.Fatalf("CreateIfNotExist() failed: %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	ResetDB(t, db)
	return db
}

// ResetDB deletes every row; cascades take care of the dependent tables.
func ResetDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if _, err := db.Exec("TRUNCATE students, subjects CASCADE"); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}
