package device

import "sort"

// UnknownRoom is displayed for room codes with no name.
const UnknownRoom = "Unknown"

// DefaultRoomNames returns the factory room codes.
func DefaultRoomNames() map[int]string {
	return map[int]string{
		0: "Living Room",
		1: "Galley",
		2: "Bedroom",
		3: "Bathroom",
		4: "Exterior",
		5: "Cockpit",
		6: "Hallway",
		7: "Bunk Room",
	}
}

// Rooms resolves room codes to display names. It is immutable once built.
type Rooms struct {
	names map[int]string
}

// NewRooms starts from DefaultRoomNames and applies overrides (typically
// the rooms section of config.yaml). An empty override name is ignored.
func NewRooms(overrides map[int]string) *Rooms {
	names := DefaultRoomNames()
	for code, name := range overrides {
		if name != "" {
			names[code] = name
		}
	}
	return &Rooms{names: names}
}

// Name returns the display name for code, or UnknownRoom.
func (r *Rooms) Name(code int) string {
	if r == nil {
		return UnknownRoom
	}
	if name, ok := r.names[code]; ok {
		return name
	}
	return UnknownRoom
}

// Known reports whether code has a configured name.
func (r *Rooms) Known(code int) bool {
	if r == nil {
		return false
	}
	_, ok := r.names[code]
	return ok
}

// Codes returns every configured room code in ascending order.
func (r *Rooms) Codes() []int {
	codes := make([]int, 0, len(r.names))
	for code := range r.names {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// RoomSummary describes one room that has at least one device.
type RoomSummary struct {
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Devices int    `json:"devices"`
}
