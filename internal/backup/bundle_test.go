package backup

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/infrastructure/config"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/infrastructure/database"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/scene"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/schedule"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/migrations"
)

type stores struct {
	scenes    *scene.Registry
	schedules *schedule.Engine
}

func newStores(t *testing.T) stores {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "backup.db"), WALMode: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	eng := schedule.NewEngine(schedule.NewSQLiteRepository(db.DB), nil, schedule.Options{}, nil)
	t.Cleanup(eng.Stop)
	return stores{
		scenes:    scene.NewRegistry(scene.NewSQLiteRepository(db.DB)),
		schedules: eng,
	}
}

func seed(t *testing.T, s stores) {
	t.Helper()
	ctx := context.Background()
	galley := 1

	scenes := []*scene.Scene{
		{
			Name:      "Evening",
			CreatedAt: time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC),
			Members: []scene.Member{
				{DeviceID: 4, Name: "Porch", Level: 100, Room: 4},
				{DeviceID: 12, Name: "Galley Ceiling", Level: 35, Room: 1},
			},
		},
		{
			Name:       "Cooking",
			RoomFilter: &galley,
			CreatedAt:  time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC),
			Members: []scene.Member{
				{DeviceID: 7, Name: "Galley Under Cabinet", Level: 100, Room: 1},
				{DeviceID: 12, Name: "Galley Ceiling", Level: 80, Room: 1},
			},
		},
	}
	for _, sc := range scenes {
		if err := s.scenes.Put(ctx, sc); err != nil {
			t.Fatalf("Put(%s) error = %v", sc.Name, err)
		}
	}

	events := []schedule.Event{
		{Time: "07:00", Days: []string{"mon", "tue", "wed"}, Action: schedule.Action{Kind: schedule.ActionLoadScene, Scene: "Cooking"}},
		{Time: "23:30", Days: []string{"sun"}, Action: schedule.Action{Kind: schedule.ActionAllOff}},
	}
	if _, err := s.schedules.Create(ctx, "Weekday", events); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := s.schedules.Create(ctx, "Away", events[1:]); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.schedules.SetEnabled(ctx, "Away", false); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			src := newStores(t)
			seed(t, src)

			var buf bytes.Buffer
			if err := Encode(&buf, Export(src.scenes, src.schedules), format); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			b, err := Decode(&buf, format)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if b.Version != Version {
				t.Errorf("Version = %d", b.Version)
			}

			dst := newStores(t)
			res, err := Import(context.Background(), b, dst.scenes, dst.schedules)
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if res.Scenes != 2 || res.Schedules != 2 {
				t.Errorf("Import() = %+v", res)
			}

			assertScenesEqual(t, src.scenes.List(), dst.scenes.List())
			assertSchedulesEqual(t, src.schedules.List(), dst.schedules.List())
		})
	}
}

func assertScenesEqual(t *testing.T, want, got []scene.Scene) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("scenes = %d, want %d", len(got), len(want))
	}
	for i := range want {
		w, g := want[i], got[i]
		if g.Name != w.Name || !g.CreatedAt.Equal(w.CreatedAt) {
			t.Errorf("scene[%d] = %s@%v, want %s@%v", i, g.Name, g.CreatedAt, w.Name, w.CreatedAt)
		}
		if (g.RoomFilter == nil) != (w.RoomFilter == nil) || (g.RoomFilter != nil && *g.RoomFilter != *w.RoomFilter) {
			t.Errorf("scene %s room filter mismatch", w.Name)
		}
		if len(g.Members) != len(w.Members) {
			t.Fatalf("scene %s members = %d, want %d", w.Name, len(g.Members), len(w.Members))
		}
		for j := range w.Members {
			if g.Members[j] != w.Members[j] {
				t.Errorf("scene %s member[%d] = %+v, want %+v", w.Name, j, g.Members[j], w.Members[j])
			}
		}
	}
}

func assertSchedulesEqual(t *testing.T, want, got []schedule.Schedule) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("schedules = %d, want %d", len(got), len(want))
	}
	for i := range want {
		w, g := want[i], got[i]
		if g.Name != w.Name || g.Enabled != w.Enabled {
			t.Errorf("schedule[%d] = %s enabled=%v, want %s enabled=%v", i, g.Name, g.Enabled, w.Name, w.Enabled)
		}
		if len(g.Events) != len(w.Events) {
			t.Fatalf("schedule %s events = %d, want %d", w.Name, len(g.Events), len(w.Events))
		}
		for j := range w.Events {
			ge, we := g.Events[j], w.Events[j]
			if ge.Time != we.Time || ge.Action != we.Action || strings.Join(ge.Days, ",") != strings.Join(we.Days, ",") {
				t.Errorf("schedule %s event[%d] = %+v, want %+v", w.Name, j, ge, we)
			}
		}
	}
}

func TestImport_RejectsNewerVersion(t *testing.T) {
	dst := newStores(t)
	_, err := Import(context.Background(), &Bundle{Version: Version + 1}, dst.scenes, dst.schedules)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Import() error = %v, want ErrUnsupportedVersion", err)
	}
}

func TestImport_StopsAtInvalidScene(t *testing.T) {
	dst := newStores(t)
	b := &Bundle{
		Version: Version,
		Scenes: []scene.Scene{
			{Name: "Good", Members: []scene.Member{{DeviceID: 1, Level: 50}}},
			{Name: "Empty"},
		},
	}

	res, err := Import(context.Background(), b, dst.scenes, dst.schedules)
	if !errors.Is(err, scene.ErrEmptyScene) {
		t.Fatalf("Import() error = %v, want ErrEmptyScene", err)
	}
	if res.Scenes != 1 || dst.scenes.Count() != 1 {
		t.Errorf("res = %+v, count = %d", res, dst.scenes.Count())
	}
}

func TestFiles(t *testing.T) {
	src := newStores(t)
	seed(t, src)

	path := filepath.Join(t.TempDir(), "bundle.json")
	if _, err := WriteFile(path, src.scenes, src.schedules); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	dst := newStores(t)
	res, err := ReadFile(context.Background(), path, dst.scenes, dst.schedules)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if res.Scenes != 2 || res.Schedules != 2 {
		t.Errorf("ReadFile() = %+v", res)
	}
	away, err := dst.schedules.Get("Away")
	if err != nil {
		t.Fatalf("Get(Away) error = %v", err)
	}
	if away.Enabled {
		t.Error("Away should stay disabled after import")
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"scenes.yaml": FormatYAML,
		"scenes.yml":  FormatYAML,
		"scenes.JSON": FormatJSON,
		"scenes":      FormatYAML,
	}
	for path, want := range tests {
		if got := FormatFor(path); got != want {
			t.Errorf("FormatFor(%q) = %q, want %q", path, got, want)
		}
	}
}
