package sqlite

import (
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUp_CreatesSchema(t *testing.T) {
	db := openTestDB(t)

	if err := db.MigrateUp(Migrations()); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	// The merge_runs table should now accept inserts.
	_, err := db.Exec(`
		INSERT INTO merge_runs (
			id, created_at_ns, output_path, file_count,
			nx, ny, nz, origin_x, origin_y, origin_z, spacing,
			point_count, min_value, max_value, mean_value, std_dev,
			duration_ms
		) VALUES ('run-1', 1, 'out.dx', 2, 4, 4, 4, 0, 0, 0, 0.5, 64, 0, 1, 0.5, 0.1, 12)`)
	if err != nil {
		t.Fatalf("insert into merge_runs failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion(Migrations())
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("expected version 1 clean, got version %d dirty %v", version, dirty)
	}
}

func TestMigrateUp_NoChangeOnSecondRun(t *testing.T) {
	db := openTestDB(t)

	if err := db.MigrateUp(Migrations()); err != nil {
		t.Fatalf("first MigrateUp failed: %v", err)
	}
	if err := db.MigrateUp(Migrations()); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}
}

func TestMigrateDown_DropsSchema(t *testing.T) {
	db := openTestDB(t)

	if err := db.MigrateUp(Migrations()); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if err := db.MigrateDown(Migrations()); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}

	if _, err := db.Exec(`SELECT COUNT(*) FROM merge_runs`); err == nil {
		t.Error("expected query against dropped merge_runs table to fail")
	}
}

func TestMigrateVersion_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion(Migrations())
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("expected version 0 clean on fresh database, got version %d dirty %v", version, dirty)
	}
}

func TestMigrateUp_CustomSource(t *testing.T) {
	db := openTestDB(t)

	migrationsFS := fstest.MapFS{
		"000001_init.up.sql":   &fstest.MapFile{Data: []byte("CREATE TABLE IF NOT EXISTS t1 (id INTEGER PRIMARY KEY);")},
		"000001_init.down.sql": &fstest.MapFile{Data: []byte("DROP TABLE IF EXISTS t1;")},
	}

	if err := db.MigrateUp(migrationsFS); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO t1 (id) VALUES (1)`); err != nil {
		t.Fatalf("insert into t1 failed: %v", err)
	}
}

func TestMigrateUp_ClosedDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "closed.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	db.Close()

	err = db.MigrateUp(Migrations())
	if err == nil {
		t.Fatal("expected error from MigrateUp on closed DB, got nil")
	}
	if !strings.Contains(err.Error(), "failed to create sqlite driver") {
		t.Errorf("expected 'failed to create sqlite driver' in error, got: %v", err)
	}
}

func TestMigrations_ContainsNumberedFiles(t *testing.T) {
	fsys := Migrations()

	for _, name := range []string{"000001_create_merge_runs.up.sql", "000001_create_merge_runs.down.sql"} {
		if _, err := fsys.Open(name); err != nil {
			t.Errorf("embedded migration %s missing: %v", name, err)
		}
	}
}
