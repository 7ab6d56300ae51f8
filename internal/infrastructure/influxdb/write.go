package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementLightLevel    = "light_level"
	MeasurementSceneApplied  = "scene_applied"
	MeasurementScheduleFired = "schedule_fired"
	MeasurementDiscovery     = "discovery"
)

// WriteLightLevel records a device's level after a command or query.
func (c *Client) WriteLightLevel(deviceID int, room string, level int) {
	c.write(MeasurementLightLevel,
		map[string]string{
			"device_id": strconv.Itoa(deviceID),
			"room":      room,
		},
		map[string]interface{}{"level": level},
	)
}

// WriteSceneApplied records how many members of a scene were applied.
func (c *Client) WriteSceneApplied(scene string, applied, members int) {
	c.write(MeasurementSceneApplied,
		map[string]string{"scene": scene},
		map[string]interface{}{
			"applied": applied,
			"members": members,
		},
	)
}

// WriteScheduleFired records one dispatched schedule event.
func (c *Client) WriteScheduleFired(schedule, action string) {
	c.write(MeasurementScheduleFired,
		map[string]string{
			"schedule": schedule,
			"action":   action,
		},
		map[string]interface{}{"count": 1},
	)
}

// WriteDiscovery records the outcome of one discovery pass.
func (c *Client) WriteDiscovery(advertised, inserted int, elapsed time.Duration) {
	c.write(MeasurementDiscovery, nil,
		map[string]interface{}{
			"advertised": advertised,
			"inserted":   inserted,
			"elapsed_ms": elapsed.Milliseconds(),
		},
	)
}

func (c *Client) write(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
