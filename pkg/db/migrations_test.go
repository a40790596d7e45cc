package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEmbeddedMigrations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := InitializeDatabase(ctx, db); err != nil {
		t.Fatalf("InitializeDatabase: %v", err)
	}
	// Idempotent.
	if err := InitializeDatabase(ctx, db); err != nil {
		t.Fatalf("second InitializeDatabase: %v", err)
	}

	for _, table := range []string{"posts", "posts_fts", "migrations"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	status, err := NewMigrationManager(db).GetMigrationStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(status.Pending) != 0 || len(status.Applied) != 2 {
		t.Fatalf("expected 2 applied and 0 pending, got %d/%d", len(status.Applied), len(status.Pending))
	}
	if status.Applied[0].Name != "posts" || status.Applied[1].Name != "posts_fts" {
		t.Errorf("unexpected migration order: %s, %s", status.Applied[0].Name, status.Applied[1].Name)
	}
	if status.Applied[0].AppliedAt == nil {
		t.Error("expected applied timestamp")
	}
}

func TestMigrationsFromFS(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	source := fstest.MapFS{
		"001_first.sql":  {Data: []byte("CREATE TABLE a (x TEXT);")},
		"010_third.sql":  {Data: []byte("CREATE TABLE c (x TEXT);")},
		"002_second.sql": {Data: []byte("CREATE TABLE b (x TEXT);")},
		"README.md":      {Data: []byte("ignored")},
		"bad_name.sql":   {Data: []byte("ignored")},
	}
	m := NewMigrationManagerFromFS(db, source)

	available, err := m.GetAvailableMigrations()
	if err != nil {
		t.Fatal(err)
	}
	var versions []int
	for _, mig := range available {
		versions = append(versions, mig.Version)
	}
	if len(versions) != 3 || versions[0] != 1 || versions[1] != 2 || versions[2] != 10 {
		t.Fatalf("unexpected versions %v", versions)
	}

	if err := m.ApplyPendingMigrations(ctx); err != nil {
		t.Fatal(err)
	}
	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected nothing pending, got %d", len(pending))
	}
}

func TestFailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	m := NewMigrationManagerFromFS(db, fstest.MapFS{
		"001_ok.sql":     {Data: []byte("CREATE TABLE ok (x TEXT);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE broken (x TEXT); THIS IS NOT SQL;")},
	})
	if err := m.ApplyPendingMigrations(ctx); err == nil {
		t.Fatal("expected broken migration to fail")
	}

	status, err := m.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(status.Applied) != 1 || len(status.Pending) != 1 {
		t.Fatalf("expected 1 applied and 1 pending, got %d/%d", len(status.Applied), len(status.Pending))
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE name = 'broken'").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatal("broken migration left a table behind")
	}
}
