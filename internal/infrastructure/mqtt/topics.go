package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every topic this service publishes or consumes.
const TopicPrefix = "newmar"

// Topics builds the topic names used on the broker.
//
//	topics := mqtt.Topics{}
//	topics.LightState(12)          // newmar/state/light/12
//	topics.SceneApplied("Evening") // newmar/event/scene/Evening/applied
type Topics struct{}

// LightState is the retained per-device level topic.
func (Topics) LightState(deviceID int) string {
	return fmt.Sprintf("%s/state/light/%d", TopicPrefix, deviceID)
}

// SceneApplied carries one event each time a scene is loaded.
func (Topics) SceneApplied(scene string) string {
	return fmt.Sprintf("%s/event/scene/%s/applied", TopicPrefix, segment(scene))
}

// ScheduleFired carries one event each time a schedule event dispatches.
func (Topics) ScheduleFired(schedule string) string {
	return fmt.Sprintf("%s/event/schedule/%s/fired", TopicPrefix, segment(schedule))
}

// Discovery carries the result of each discovery pass.
func (Topics) Discovery() string {
	return TopicPrefix + "/event/discovery"
}

// SystemStatus is the retained online/offline topic, also used for the LWT.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// SceneCommand accepts {"name": "..."} and loads that scene.
func (Topics) SceneCommand() string {
	return TopicPrefix + "/command/scene"
}

// AllCommand accepts {"on": true|false} and switches every light.
func (Topics) AllCommand() string {
	return TopicPrefix + "/command/all"
}

// AllCommands matches every command topic.
func (Topics) AllCommands() string {
	return TopicPrefix + "/command/#"
}

// AllLightStates matches every per-device state topic.
func (Topics) AllLightStates() string {
	return TopicPrefix + "/state/light/+"
}

// segment makes a user-chosen name safe as a single topic level.
// Wildcards and separators are replaced with underscores.
func segment(name string) string {
	if name == "" {
		return "_"
	}
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(name)
}
