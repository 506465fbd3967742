package testutil

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/jbweber/homelab/shelf/internal/datastore"
	"github.com/jbweber/homelab/shelf/internal/migrations"
)

// SetupTestDB opens a private in-memory SQLite database. It is closed when the test ends.
func SetupTestDB(t *testing.T, testName string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", NewTestDSN(testName))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	return db
}

// SetupTestDatastore returns a migrated, empty datastore named after the running test.
func SetupTestDatastore(t *testing.T) *datastore.Datastore {
	t.Helper()

	db := SetupTestDB(t, t.Name())
	if err := migrations.Run(db, datastore.SQLite); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return datastore.New(db, datastore.SQLite)
}

// SetupSeededDatastore returns a migrated datastore holding the demo catalog.
func SetupSeededDatastore(t *testing.T) *datastore.Datastore {
	t.Helper()

	ds := SetupTestDatastore(t)
	if _, err := datastore.Seed(context.Background(), ds); err != nil {
		t.Fatalf("Failed to seed datastore: %v", err)
	}
	return ds
}
