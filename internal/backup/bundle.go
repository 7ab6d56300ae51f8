package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/scene"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/schedule"
)

// Version is written into every bundle. Import rejects newer versions.
const Version = 1

// Format selects the bundle encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedVersion is returned when a bundle was written by a newer release.
var ErrUnsupportedVersion = errors.New("backup: unsupported bundle version")

// Bundle is the on-disk representation of all saved scenes and schedules.
type Bundle struct {
	Version    int                 `json:"version" yaml:"version"`
	ExportedAt time.Time           `json:"exported_at" yaml:"exported_at"`
	Scenes     []scene.Scene       `json:"scenes" yaml:"scenes"`
	Schedules  []schedule.Schedule `json:"schedules" yaml:"schedules"`
}

// SceneStore is the scene surface used by export and import.
// scene.Registry satisfies it.
type SceneStore interface {
	List() []scene.Scene
	Put(ctx context.Context, s *scene.Scene) error
}

// ScheduleStore is the schedule surface used by export and import.
// schedule.Engine satisfies it.
type ScheduleStore interface {
	List() []schedule.Schedule
	Put(ctx context.Context, s *schedule.Schedule) (*schedule.Schedule, error)
}

// ImportResult counts what an import wrote.
type ImportResult struct {
	Scenes    int
	Schedules int
}

// FormatFor picks the encoding from a file name.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Export snapshots both stores into a bundle.
func Export(scenes SceneStore, schedules ScheduleStore) *Bundle {
	return &Bundle{
		Version:    Version,
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Scenes:     scenes.List(),
		Schedules:  schedules.List(),
	}
}

// Import writes every scene, then every schedule, in bundle order. It stops
// at the first invalid entry; entries before it stay written.
func Import(ctx context.Context, b *Bundle, scenes SceneStore, schedules ScheduleStore) (ImportResult, error) {
	var res ImportResult
	if b.Version > Version {
		return res, fmt.Errorf("%w: %d", ErrUnsupportedVersion, b.Version)
	}

	for i := range b.Scenes {
		if err := scenes.Put(ctx, &b.Scenes[i]); err != nil {
			return res, fmt.Errorf("importing scene %q: %w", b.Scenes[i].Name, err)
		}
		res.Scenes++
	}
	for i := range b.Schedules {
		if _, err := schedules.Put(ctx, &b.Schedules[i]); err != nil {
			return res, fmt.Errorf("importing schedule %q: %w", b.Schedules[i].Name, err)
		}
		res.Schedules++
	}
	return res, nil
}

// Encode writes b to w.
func Encode(w io.Writer, b *Bundle, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return err
		}
		return enc.Close()
	}
}

// Decode reads a bundle from r.
func Decode(r io.Reader, format Format) (*Bundle, error) {
	var b Bundle
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&b)
	default:
		err = yaml.NewDecoder(r).Decode(&b)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding bundle: %w", err)
	}
	return &b, nil
}

// WriteFile exports both stores to path.
func WriteFile(path string, scenes SceneStore, schedules ScheduleStore) (*Bundle, error) {
	b := Export(scenes, schedules)

	f, err := os.Create(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("creating bundle: %w", err)
	}
	if err := Encode(f, b, FormatFor(path)); err != nil {
		f.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("writing bundle: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing bundle: %w", err)
	}
	return b, nil
}

// ReadFile imports the bundle at path.
func ReadFile(ctx context.Context, path string, scenes SceneStore, schedules ScheduleStore) (ImportResult, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return ImportResult{}, fmt.Errorf("opening bundle: %w", err)
	}
	defer f.Close()

	b, err := Decode(f, FormatFor(path))
	if err != nil {
		return ImportResult{}, err
	}
	return Import(ctx, b, scenes, schedules)
}
