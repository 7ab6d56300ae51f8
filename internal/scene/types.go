package scene

import "time"

// Scene is a named snapshot of device levels.
type Scene struct {
	Name string `json:"name" yaml:"name"`

	// RoomFilter limits the snapshot to one room code. Nil means all rooms.
	RoomFilter *int `json:"room_filter,omitempty" yaml:"room_filter,omitempty"`

	// Members are stored in device ID order at save time and applied in
	// this order on load.
	Members []Member `json:"members" yaml:"members"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Member is a copy of one device's state at save time. It is not a live
// reference: the device may have disappeared since.
type Member struct {
	DeviceID int    `json:"device_id" yaml:"device_id"`
	Name     string `json:"name" yaml:"name"`
	Level    int    `json:"level" yaml:"level"`
	Room     int    `json:"room" yaml:"room"`
}

// DeepCopy returns a copy that shares no memory with s.
func (s *Scene) DeepCopy() *Scene {
	if s == nil {
		return nil
	}

	cpy := *s
	if s.RoomFilter != nil {
		room := *s.RoomFilter
		cpy.RoomFilter = &room
	}
	if s.Members != nil {
		cpy.Members = make([]Member, len(s.Members))
		copy(cpy.Members, s.Members)
	}
	return &cpy
}
