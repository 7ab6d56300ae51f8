package scene

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/infrastructure/config"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/infrastructure/database"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/migrations"
)

// setupTestRepo opens a migrated SQLite database in a temp directory.
func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "scenes.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func intPtr(v int) *int { return &v }

func testScene(name string) *Scene {
	return &Scene{
		Name:       name,
		RoomFilter: intPtr(1),
		Members: []Member{
			{DeviceID: 12, Name: "Galley Ceiling", Level: 40, Room: 1},
			{DeviceID: 7, Name: "Galley Under Cabinet", Level: 100, Room: 1},
		},
		CreatedAt: time.Date(2026, 3, 2, 19, 30, 0, 0, time.UTC),
	}
}

func TestSQLiteRepository_SaveAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, testScene("Dinner")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Get(ctx, "Dinner")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := testScene("Dinner")
	if got.Name != want.Name || *got.RoomFilter != 1 || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("Get() = %+v", got)
	}
	if len(got.Members) != 2 {
		t.Fatalf("Members len = %d", len(got.Members))
	}
	for i := range want.Members {
		if got.Members[i] != want.Members[i] {
			t.Errorf("Members[%d] = %+v, want %+v", i, got.Members[i], want.Members[i])
		}
	}
}

func TestSQLiteRepository_SaveOverwrites(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, testScene("Dinner")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	replacement := &Scene{
		Name:      "Dinner",
		Members:   []Member{{DeviceID: 4, Name: "Porch", Level: 0, Room: 4}},
		CreatedAt: time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC),
	}
	if err := repo.Save(ctx, replacement); err != nil {
		t.Fatalf("Save() overwrite error = %v", err)
	}

	got, err := repo.Get(ctx, "Dinner")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.RoomFilter != nil {
		t.Errorf("RoomFilter = %v, want nil", *got.RoomFilter)
	}
	if len(got.Members) != 1 || got.Members[0].DeviceID != 4 {
		t.Errorf("Members = %+v", got.Members)
	}

	all, err := repo.List(ctx)
	if err != nil || len(all) != 1 {
		t.Errorf("List() = %d scenes, err %v", len(all), err)
	}
}

func TestSQLiteRepository_GetNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("Get() error = %v, want ErrSceneNotFound", err)
	}
}

func TestSQLiteRepository_ListOrderedByName(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"Night", "Arrival", "Dinner"} {
		if err := repo.Save(ctx, testScene(name)); err != nil {
			t.Fatalf("Save(%s) error = %v", name, err)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for i, want := range []string{"Arrival", "Dinner", "Night"} {
		if all[i].Name != want {
			t.Errorf("List()[%d] = %q, want %q", i, all[i].Name, want)
		}
	}
}

func TestSQLiteRepository_Delete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, testScene("Dinner")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	removed, err := repo.Delete(ctx, "Dinner")
	if err != nil || !removed {
		t.Errorf("Delete() = %v, %v; want true", removed, err)
	}
	removed, err = repo.Delete(ctx, "Dinner")
	if err != nil || removed {
		t.Errorf("second Delete() = %v, %v; want false", removed, err)
	}
}
