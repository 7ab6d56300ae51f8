package device

import (
	"fmt"
	"strings"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/protocol"
)

// Kind distinguishes dimmable loads from on/off loads.
type Kind int

const (
	// KindDimmer accepts any brightness from 0 to 100.
	KindDimmer Kind = iota

	// KindSwitch is either fully on or off.
	KindSwitch
)

// KindFromType maps the controller's type code: 0 is a dimmer, anything
// else a switch.
func KindFromType(code int) Kind {
	if code == 0 {
		return KindDimmer
	}
	return KindSwitch
}

// String returns "dimmer" or "switch".
func (k Kind) String() string {
	if k == KindDimmer {
		return "dimmer"
	}
	return "switch"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts "dimmer" or "switch".
func (k *Kind) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "dimmer":
		*k = KindDimmer
	case "switch":
		*k = KindSwitch
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDevice, b)
	}
	return nil
}

// Device is one controllable light as reported during discovery.
//
// Level is the locally cached brightness (0-100). It is updated
// optimistically after every successful command and refreshed by brightness
// queries; the controller remains authoritative.
type Device struct {
	ID       int    `json:"id"`
	Instance int    `json:"instance"`
	Kind     Kind   `json:"kind"`
	Room     int    `json:"room"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
}

// FromObject converts a parsed DEVICE_OBJECT payload into a Device with
// Level 0.
func FromObject(obj protocol.DeviceObject) Device {
	return Device{
		ID:       obj.ID,
		Instance: obj.Instance,
		Kind:     KindFromType(obj.Type),
		Room:     obj.Room,
		Name:     NormalizeName(obj.Name),
	}
}

// IsOn reports whether the cached level is above zero.
func (d Device) IsOn() bool {
	return d.Level > 0
}
