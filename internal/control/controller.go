package control

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/device"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/protocol"
)

// DefaultQueryTimeout bounds a brightness query.
const DefaultQueryTimeout = 3 * time.Second

// Sender writes one text frame to the controller.
type Sender interface {
	Send(ctx context.Context, msg string) error
}

// Requester sends a request and waits for its tagged response.
// correlation.Engine satisfies it.
type Requester interface {
	Request(ctx context.Context, tag string, timeout time.Duration, send func() error) (string, error)
}

// LevelObserver is notified after every change to a device's cached level.
// Calls are synchronous; implementations must not block.
type LevelObserver interface {
	LevelChanged(d device.Device)
}

// Logger defines the logging interface used by the Controller.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Controller turns level intents into SET_LOAD commands and keeps the
// registry's cached levels in step.
//
// Commands are fire-and-forget: a successful Send is treated as applied and
// the cached level is updated optimistically.
//
// Thread Safety: all methods are safe for concurrent use.
type Controller struct {
	registry     *device.Registry
	sender       Sender
	requests     Requester
	queryTimeout time.Duration
	logger       Logger

	obsMu     sync.RWMutex
	observers []LevelObserver
}

// NewController creates a controller. A zero queryTimeout uses
// DefaultQueryTimeout; a nil logger discards output.
func NewController(registry *device.Registry, sender Sender, requests Requester, queryTimeout time.Duration, logger Logger) *Controller {
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Controller{
		registry:     registry,
		sender:       sender,
		requests:     requests,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

// AddObserver registers o for level change notifications.
func (c *Controller) AddObserver(o LevelObserver) {
	c.obsMu.Lock()
	c.observers = append(c.observers, o)
	c.obsMu.Unlock()
}

// Registry returns the device registry the controller acts on.
func (c *Controller) Registry() *device.Registry {
	return c.registry
}

// EncodeCommand builds the SET_LOAD frame for d at level and returns it with
// the level that will be cached. level must already be clamped.
//
// A dimmer sends instance|brightness. A switch sends instance|on-nibble and
// caches 100 or 0.
func EncodeCommand(d device.Device, level int) (frame string, cached int) {
	inst := protocol.EncodeInstance(float64(d.Instance))

	if d.Kind == device.KindSwitch {
		on := level > 0
		cached = 0
		if on {
			cached = device.MaxLevel
		}
		return protocol.SetLoadCommand(protocol.Pack(inst, protocol.EncodeOnOff(on))), cached
	}

	return protocol.SetLoadCommand(protocol.Pack(inst, protocol.EncodeBrightness(float64(level)))), level
}

// SetLevel clamps level to [0,100], sends the command and updates the cache.
// It returns device.ErrDeviceNotFound for an unknown id.
func (c *Controller) SetLevel(ctx context.Context, id, level int) (device.Device, error) {
	d, err := c.registry.Get(id)
	if err != nil {
		return device.Device{}, fmt.Errorf("set level on %d: %w", id, err)
	}

	frame, cached := EncodeCommand(d, device.ClampLevel(level))
	if err := c.sender.Send(ctx, frame); err != nil {
		return d, fmt.Errorf("set level on %d: %w", id, err)
	}

	updated, err := c.registry.SetLevel(id, cached)
	if err != nil {
		// Removed by a concurrent re-discovery after the send.
		return d, fmt.Errorf("set level on %d: %w", id, err)
	}

	c.logger.Debug("level set", "device_id", id, "level", cached, "frame", frame)
	c.notify(updated)
	return updated, nil
}

// TurnOn sets the device to full brightness.
func (c *Controller) TurnOn(ctx context.Context, id int) (device.Device, error) {
	return c.SetLevel(ctx, id, device.MaxLevel)
}

// TurnOff sets the device to zero.
func (c *Controller) TurnOff(ctx context.Context, id int) (device.Device, error) {
	return c.SetLevel(ctx, id, device.MinLevel)
}

// AllOn turns every device on and returns how many commands were sent.
func (c *Controller) AllOn(ctx context.Context) int {
	return c.setAll(ctx, device.MaxLevel)
}

// AllOff turns every device off and returns how many commands were sent.
func (c *Controller) AllOff(ctx context.Context) int {
	return c.setAll(ctx, device.MinLevel)
}

// setAll sends to every device in ID order. Per-device failures are logged
// and counted out, never returned.
func (c *Controller) setAll(ctx context.Context, level int) int {
	applied := 0
	for _, d := range c.registry.All() {
		if _, err := c.SetLevel(ctx, d.ID, level); err != nil {
			c.logger.Warn("bulk set failed", "device_id", d.ID, "level", level, "error", err)
			continue
		}
		applied++
	}
	return applied
}

// QueryBrightness asks the controller for the device's current level,
// caches the clamped result and returns it.
func (c *Controller) QueryBrightness(ctx context.Context, id int) (int, error) {
	if _, err := c.registry.Get(id); err != nil {
		return 0, fmt.Errorf("query brightness of %d: %w", id, err)
	}

	value, err := c.requests.Request(ctx, protocol.StatusTag(id), c.queryTimeout, func() error {
		return c.sender.Send(ctx, protocol.StatusRequest(id))
	})
	if err != nil {
		return 0, fmt.Errorf("query brightness of %d: %w", id, err)
	}

	pct, err := protocol.ParsePercent(value)
	if err != nil {
		return 0, fmt.Errorf("query brightness of %d: %w", id, err)
	}
	level := device.ClampLevel(pct)

	updated, err := c.registry.SetLevel(id, level)
	if err != nil {
		return level, fmt.Errorf("query brightness of %d: %w", id, err)
	}
	c.notify(updated)
	return level, nil
}

func (c *Controller) notify(d device.Device) {
	c.obsMu.RLock()
	observers := c.observers
	c.obsMu.RUnlock()

	for _, o := range observers {
		o.LevelChanged(d)
	}
}
