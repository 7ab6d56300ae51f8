package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/device"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/discovery"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/scene"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/schedule"
)

// LightState is the retained payload on newmar/state/light/<id>.
type LightState struct {
	DeviceID  int         `json:"device_id"`
	Name      string      `json:"name"`
	Room      string      `json:"room"`
	Kind      device.Kind `json:"kind"`
	Level     int         `json:"level"`
	On        bool        `json:"on"`
	Timestamp time.Time   `json:"timestamp"`
}

func newLightState(d device.Device, room string) LightState {
	return LightState{
		DeviceID:  d.ID,
		Name:      d.Name,
		Room:      room,
		Kind:      d.Kind,
		Level:     d.Level,
		On:        d.IsOn(),
		Timestamp: time.Now().UTC(),
	}
}

// SceneEvent is published when a scene has been applied.
type SceneEvent struct {
	ID        string    `json:"id"`
	Scene     string    `json:"scene"`
	Source    string    `json:"source"`
	Members   int       `json:"members"`
	Applied   int       `json:"applied"`
	Missing   int       `json:"missing"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

func newSceneEvent(res scene.LoadResult, source string) SceneEvent {
	return SceneEvent{
		ID:        uuid.NewString(),
		Scene:     res.Scene,
		Source:    source,
		Members:   res.Members,
		Applied:   res.Applied,
		Missing:   res.Missing,
		Failed:    res.Failed,
		Timestamp: time.Now().UTC(),
	}
}

// ScheduleEvent is published when a schedule action has been dispatched.
type ScheduleEvent struct {
	ID        string              `json:"id"`
	Schedule  string              `json:"schedule"`
	Action    schedule.ActionKind `json:"action"`
	Scene     string              `json:"scene,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

func newScheduleEvent(name string, action schedule.Action) ScheduleEvent {
	return ScheduleEvent{
		ID:        uuid.NewString(),
		Schedule:  name,
		Action:    action.Kind,
		Scene:     action.Scene,
		Timestamp: time.Now().UTC(),
	}
}

// DiscoveryEvent is the retained payload on newmar/event/discovery.
type DiscoveryEvent struct {
	ID         string    `json:"id"`
	State      string    `json:"state"`
	Advertised int       `json:"advertised"`
	Inserted   int       `json:"inserted"`
	Skipped    int       `json:"skipped"`
	Missing    int       `json:"missing"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func newDiscoveryEvent(res discovery.Result, err error) DiscoveryEvent {
	ev := DiscoveryEvent{
		ID:         uuid.NewString(),
		State:      res.State.String(),
		Advertised: res.Advertised,
		Inserted:   res.Inserted,
		Skipped:    res.Skipped,
		Missing:    res.Missing,
		ElapsedMS:  res.Elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}
