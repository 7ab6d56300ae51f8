package database

import (
	"context"
	"testing"
	"testing/fstest"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20260101_000000_lamps.up.sql":   {Data: []byte("CREATE TABLE lamps (id INTEGER PRIMARY KEY);")},
		"20260101_000000_lamps.down.sql": {Data: []byte("DROP TABLE lamps;")},
		"20260102_000000_rooms.up.sql":   {Data: []byte("CREATE TABLE rooms (code INTEGER PRIMARY KEY);")},
		"20260102_000000_rooms.down.sql": {Data: []byte("DROP TABLE rooms;")},
		"README.md":                      {Data: []byte("ignored")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&n)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	src := testMigrations()

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "lamps") || !tableExists(t, db, "rooms") {
		t.Fatal("expected lamps and rooms tables")
	}

	applied, pending, err := db.MigrationStatus(ctx, src)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("applied=%d pending=%d, want 2/0", len(applied), len(pending))
	}
	if applied[0].Version != "20260101_000000" {
		t.Errorf("first applied = %q", applied[0].Version)
	}

	// Idempotent.
	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrate_FailureStopsAtBadStep(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	src := fstest.MapFS{
		"20260101_000000_ok.up.sql":  {Data: []byte("CREATE TABLE ok_table (id INTEGER);")},
		"20260102_000000_bad.up.sql": {Data: []byte("CREATE TABLE nonsense (")},
	}

	if err := db.Migrate(ctx, src); err == nil {
		t.Fatal("Migrate() expected error")
	}
	if !tableExists(t, db, "ok_table") {
		t.Error("earlier migration should stay applied")
	}

	applied, pending, err := db.MigrationStatus(ctx, src)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 1 || len(pending) != 1 {
		t.Errorf("applied=%d pending=%d, want 1/1", len(applied), len(pending))
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	src := testMigrations()

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, src); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	if tableExists(t, db, "rooms") {
		t.Error("rooms should be dropped by rollback")
	}
	if !tableExists(t, db, "lamps") {
		t.Error("lamps should remain")
	}
}

func TestMigrateDown_NothingApplied(t *testing.T) {
	db := openTestDB(t)
	if err := db.MigrateDown(context.Background(), testMigrations()); err != nil {
		t.Errorf("MigrateDown() on empty db = %v", err)
	}
}

func TestLoadMigrations(t *testing.T) {
	got, err := LoadMigrations(testMigrations())
	if err != nil {
		t.Fatalf("LoadMigrations() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d migrations, want 2", len(got))
	}
	if got[0].Name != "lamps" || got[1].Name != "rooms" {
		t.Errorf("names = %q, %q", got[0].Name, got[1].Name)
	}
	if got[0].DownSQL == "" {
		t.Error("down SQL not paired")
	}

	if m, err := LoadMigrations(nil); err != nil || m != nil {
		t.Errorf("LoadMigrations(nil) = %v, %v", m, err)
	}

	orphan := fstest.MapFS{"20260101_000000_x.down.sql": {Data: []byte("DROP TABLE x;")}}
	if _, err := LoadMigrations(orphan); err == nil {
		t.Error("expected error for down without up")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		in      string
		version string
		name    string
		up      bool
		ok      bool
	}{
		{"20260301_090000_scenes.up.sql", "20260301_090000", "scenes", true, true},
		{"20260301_090000_scenes.down.sql", "20260301_090000", "", false, true},
		{"20260301_090000.up.sql", "20260301_090000", "", true, true},
		{"20260301.up.sql", "", "", false, false},
		{"20260301_090000_x.sql", "", "", false, false},
		{"notes.txt", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.in)
			if ok != tt.ok || up != tt.up || version != tt.version {
				t.Errorf("parseMigrationFilename(%q) = (%q, %q, %v, %v)", tt.in, version, name, up, ok)
			}
			if tt.name != "" && name != tt.name {
				t.Errorf("name = %q, want %q", name, tt.name)
			}
		})
	}
}
