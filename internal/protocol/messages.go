package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Wire vocabulary.
const (
	// CountTag tags the device count response.
	CountTag = "DEVICE_COUNT"

	// ObjectTagPrefix is followed by the zero-based object index.
	ObjectTagPrefix = "DEVICE_OBJECT_"

	// StatusTagPrefix is followed by the device ID.
	StatusTagPrefix = "LOAD_STATUS_"

	// SetLoadAction is the action identifier for control commands.
	SetLoadAction = "SET_LOAD"

	getVerb   = "GET"
	separator = "|"
)

// CountRequest asks the controller how many devices it exposes.
func CountRequest() string {
	return getVerb + separator + CountTag
}

// ObjectTag is the response tag for the device object at index.
func ObjectTag(index int) string {
	return ObjectTagPrefix + strconv.Itoa(index)
}

// ObjectRequest fetches the device object at index.
func ObjectRequest(index int) string {
	return getVerb + separator + ObjectTag(index)
}

// StatusTag is the response tag for a brightness query on deviceID.
func StatusTag(deviceID int) string {
	return StatusTagPrefix + strconv.Itoa(deviceID)
}

// StatusRequest queries the current brightness of deviceID.
func StatusRequest(deviceID int) string {
	return getVerb + separator + StatusTag(deviceID)
}

// SetLoadCommand wraps a packed payload: SET_LOAD|0xHHHH.
func SetLoadCommand(payload string) string {
	return SetLoadAction + separator + payload
}

// Message is one inbound frame. Frames of the form KEY=VALUE are tagged;
// anything else is a bare session-control token.
type Message struct {
	Tag    string
	Value  string
	Tagged bool
}

// ParseMessage splits raw at the first '='. Surrounding whitespace
// (including a trailing CR/LF) is ignored.
func ParseMessage(raw string) Message {
	raw = strings.TrimSpace(raw)
	key, value, found := strings.Cut(raw, "=")
	if !found || key == "" {
		return Message{Tag: raw}
	}
	return Message{Tag: key, Value: value, Tagged: true}
}

// ParseCount parses a DEVICE_COUNT value.
func ParseCount(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCount, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative count %d", ErrInvalidCount, n)
	}
	return n, nil
}

// ParsePercent parses a brightness status value such as "75%".
// The suffix is optional and fractional values are rounded.
func ParsePercent(value string) (int, error) {
	s := strings.TrimSpace(value)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidPercent)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPercent, value)
	}
	return int(math.Round(f)), nil
}

// DeviceObject is the JSON payload of a DEVICE_OBJECT_<i> response.
type DeviceObject struct {
	ID       int    `json:"id"`
	Instance int    `json:"instance"`
	Type     int    `json:"type"`
	Room     int    `json:"room"`
	Name     string `json:"name"`
}

// wireObject tolerates controllers that quote numeric fields.
type wireObject struct {
	ID       json.Number `json:"id"`
	Instance json.Number `json:"instance"`
	Type     json.Number `json:"type"`
	Room     json.Number `json:"room"`
	Name     string      `json:"name"`
}

// ParseDeviceObject decodes a device object. The id must be a positive
// integer; missing instance, type and room default to zero.
func ParseDeviceObject(value string) (DeviceObject, error) {
	var w wireObject
	dec := json.NewDecoder(strings.NewReader(value))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return DeviceObject{}, fmt.Errorf("%w: %w", ErrInvalidObject, err)
	}

	var obj DeviceObject
	var err error
	if obj.ID, err = numberField("id", w.ID, true); err != nil {
		return DeviceObject{}, err
	}
	if obj.ID <= 0 {
		return DeviceObject{}, fmt.Errorf("%w: id must be positive, got %d", ErrInvalidObject, obj.ID)
	}
	if obj.Instance, err = numberField("instance", w.Instance, false); err != nil {
		return DeviceObject{}, err
	}
	if obj.Type, err = numberField("type", w.Type, false); err != nil {
		return DeviceObject{}, err
	}
	if obj.Room, err = numberField("room", w.Room, false); err != nil {
		return DeviceObject{}, err
	}
	obj.Name = w.Name
	return obj, nil
}

func numberField(name string, n json.Number, required bool) (int, error) {
	if n == "" {
		if required {
			return 0, fmt.Errorf("%w: missing %s", ErrInvalidObject, name)
		}
		return 0, nil
	}
	v, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrInvalidObject, name, n)
	}
	return v, nil
}
