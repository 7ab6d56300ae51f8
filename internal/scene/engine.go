package scene

import (
	"context"
	"fmt"
	"time"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/device"
)

// DeviceSource is the read side of the device registry.
type DeviceSource interface {
	All() []device.Device
	Get(id int) (device.Device, error)
}

// DeviceController sets and queries device levels. control.Controller
// satisfies it.
type DeviceController interface {
	SetLevel(ctx context.Context, id, level int) (device.Device, error)
	QueryBrightness(ctx context.Context, id int) (int, error)
}

// LoadResult reports the outcome of applying a scene.
type LoadResult struct {
	Scene   string `json:"scene"`
	Members int    `json:"members"`
	Applied int    `json:"applied"`
	Missing int    `json:"missing"`
	Failed  int    `json:"failed"`
}

// Engine captures and applies scenes.
//
// Thread Safety: Engine holds no mutable state of its own; the Registry
// and device registry do the locking.
type Engine struct {
	registry *Registry
	devices  DeviceSource
	control  DeviceController
	logger   Logger
	now      func() time.Time
}

// NewEngine creates a scene engine. A nil logger discards output.
func NewEngine(registry *Registry, devices DeviceSource, control DeviceController, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{
		registry: registry,
		devices:  devices,
		control:  control,
		logger:   logger,
		now:      time.Now,
	}
}

// Registry returns the underlying scene store.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Save snapshots the current level of every device, or of one room when
// roomFilter is set, under name. Each level is refreshed from the
// controller first; a failed refresh falls back to the cached level.
// An existing scene with the same name is overwritten.
//
// Returns ErrEmptyScene if no device matches.
func (e *Engine) Save(ctx context.Context, name string, roomFilter *int) (*Scene, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var members []Member
	for _, d := range e.devices.All() {
		if roomFilter != nil && d.Room != *roomFilter {
			continue
		}

		level := d.Level
		if fresh, err := e.control.QueryBrightness(ctx, d.ID); err != nil {
			e.logger.Debug("brightness refresh failed, using cached level",
				"device_id", d.ID, "level", level, "error", err)
		} else {
			level = fresh
		}

		members = append(members, Member{DeviceID: d.ID, Name: d.Name, Level: level, Room: d.Room})
	}

	if len(members) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyScene, name)
	}

	s := &Scene{
		Name:       name,
		Members:    members,
		CreatedAt:  e.now().UTC().Truncate(time.Second),
		RoomFilter: roomFilter,
	}
	if err := e.registry.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("saving scene %q: %w", name, err)
	}

	e.logger.Info("scene saved", "scene", name, "members", len(members))
	return s.DeepCopy(), nil
}

// Load applies the named scene, one member at a time in stored order.
// Members whose device no longer exists are skipped. A member that fails to
// send is counted and the load continues.
func (e *Engine) Load(ctx context.Context, name string) (LoadResult, error) {
	s, err := e.registry.Get(name)
	if err != nil {
		return LoadResult{Scene: name}, err
	}

	res := LoadResult{Scene: name, Members: len(s.Members)}
	for _, m := range s.Members {
		if _, err := e.devices.Get(m.DeviceID); err != nil {
			res.Missing++
			e.logger.Debug("scene member missing", "scene", name, "device_id", m.DeviceID)
			continue
		}
		if _, err := e.control.SetLevel(ctx, m.DeviceID, m.Level); err != nil {
			res.Failed++
			e.logger.Warn("scene member failed", "scene", name, "device_id", m.DeviceID, "error", err)
			continue
		}
		res.Applied++
	}

	e.logger.Info("scene loaded",
		"scene", name,
		"members", res.Members,
		"applied", res.Applied,
		"missing", res.Missing,
		"failed", res.Failed,
	)
	return res, nil
}

// Delete removes the named scene and reports whether it existed.
func (e *Engine) Delete(ctx context.Context, name string) (bool, error) {
	removed, err := e.registry.Delete(ctx, name)
	if err != nil {
		return false, fmt.Errorf("deleting scene %q: %w", name, err)
	}
	if removed {
		e.logger.Info("scene deleted", "scene", name)
	}
	return removed, nil
}

// Get returns a copy of the named scene.
func (e *Engine) Get(name string) (*Scene, error) {
	return e.registry.Get(name)
}

// List returns every scene sorted by name.
func (e *Engine) List() []Scene {
	return e.registry.List()
}

// Prune removes members whose device is not in the registry and returns
// how many were dropped. A scene left with no members is deleted.
// Pruning only ever happens on request.
func (e *Engine) Prune(ctx context.Context, name string) (int, error) {
	s, err := e.registry.Get(name)
	if err != nil {
		return 0, err
	}

	kept := s.Members[:0]
	for _, m := range s.Members {
		if _, err := e.devices.Get(m.DeviceID); err == nil {
			kept = append(kept, m)
		}
	}
	removed := len(s.Members) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if len(kept) == 0 {
		if _, err := e.registry.Delete(ctx, name); err != nil {
			return 0, fmt.Errorf("pruning scene %q: %w", name, err)
		}
		e.logger.Info("scene pruned to nothing, deleted", "scene", name)
		return removed, nil
	}

	s.Members = kept
	if err := e.registry.Put(ctx, s); err != nil {
		return 0, fmt.Errorf("pruning scene %q: %w", name, err)
	}
	e.logger.Info("scene pruned", "scene", name, "removed", removed)
	return removed, nil
}
