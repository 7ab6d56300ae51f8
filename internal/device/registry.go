package device

import (
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the in-memory set of discovered devices keyed by ID.
//
// Devices are added only by discovery (Insert, Replace, Clear) and the only
// per-device mutation is the cached level (SetLevel). Entries never expire.
//
// All public methods are thread-safe and return copies.
type Registry struct {
	mu      sync.RWMutex
	devices map[int]Device
	rooms   *Rooms
	logger  Logger
}

// NewRegistry creates an empty registry. A nil rooms uses the defaults.
func NewRegistry(rooms *Rooms) *Registry {
	if rooms == nil {
		rooms = NewRooms(nil)
	}
	return &Registry{
		devices: make(map[int]Device),
		rooms:   rooms,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RoomsTable returns the room name table the registry was built with.
func (r *Registry) RoomsTable() *Rooms {
	return r.rooms
}

// Insert adds d, keyed by d.ID. It reports false if the ID was already
// present, in which case the newer object replaces the older one.
func (r *Registry) Insert(d Device) bool {
	d.Level = ClampLevel(d.Level)

	r.mu.Lock()
	_, exists := r.devices[d.ID]
	r.devices[d.ID] = d
	r.mu.Unlock()

	if exists {
		r.logger.Warn("duplicate device id replaced", "device_id", d.ID, "name", d.Name)
	}
	return !exists
}

// Replace swaps the whole device set.
func (r *Registry) Replace(devices []Device) {
	next := make(map[int]Device, len(devices))
	for _, d := range devices {
		d.Level = ClampLevel(d.Level)
		next[d.ID] = d
	}

	r.mu.Lock()
	r.devices = next
	r.mu.Unlock()
}

// Clear removes every device.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.devices = make(map[int]Device)
	r.mu.Unlock()
}

// Get returns the device with id, or ErrDeviceNotFound.
func (r *Registry) Get(id int) (Device, error) {
	r.mu.RLock()
	d, ok := r.devices[id]
	r.mu.RUnlock()

	if !ok {
		return Device{}, ErrDeviceNotFound
	}
	return d, nil
}

// All returns every device sorted by ID.
func (r *Registry) All() []Device {
	r.mu.RLock()
	out := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	r.mu.RUnlock()

	sortByID(out)
	return out
}

// ByRoom returns the devices in room, sorted by ID.
func (r *Registry) ByRoom(room int) []Device {
	r.mu.RLock()
	var out []Device
	for _, d := range r.devices {
		if d.Room == room {
			out = append(out, d)
		}
	}
	r.mu.RUnlock()

	sortByID(out)
	return out
}

// SetLevel clamps level, stores it on the device and returns the updated copy.
func (r *Registry) SetLevel(id, level int) (Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return Device{}, ErrDeviceNotFound
	}
	d.Level = ClampLevel(level)
	r.devices[id] = d
	return d, nil
}

// Count returns the number of devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Rooms summarises the rooms that currently contain devices, ordered by code.
func (r *Registry) Rooms() []RoomSummary {
	r.mu.RLock()
	counts := make(map[int]int)
	for _, d := range r.devices {
		counts[d.Room]++
	}
	r.mu.RUnlock()

	out := make([]RoomSummary, 0, len(counts))
	for code, n := range counts {
		out = append(out, RoomSummary{Code: code, Name: r.rooms.Name(code), Devices: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// RoomName resolves a room code through the registry's room table.
func (r *Registry) RoomName(code int) string {
	return r.rooms.Name(code)
}

func sortByID(devices []Device) {
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
}
