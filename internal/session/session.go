package session

import (
	"context"
	"fmt"
	"time"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/control"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/correlation"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/device"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/discovery"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/infrastructure/logging"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/infrastructure/mqtt"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/protocol"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/scene"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/schedule"
)

// Sender writes one text frame to the controller. transport.Client
// satisfies it.
type Sender interface {
	Send(ctx context.Context, msg string) error
}

// Publisher is the MQTT surface the session uses. mqtt.Client satisfies it.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Metrics records time-series points. influxdb.Client satisfies it.
type Metrics interface {
	WriteLightLevel(deviceID int, room string, level int)
	WriteSceneApplied(scene string, applied, members int)
	WriteScheduleFired(schedule, action string)
	WriteDiscovery(advertised, inserted int, elapsed time.Duration)
}

// Options configures a Session.
type Options struct {
	Rooms           map[int]string
	DiscoveryBudget time.Duration
	QueryTimeout    time.Duration
	Schedule        schedule.Options

	SceneRepo    scene.Repository
	ScheduleRepo schedule.Repository

	// Publisher and Metrics are optional.
	Publisher Publisher
	Metrics   Metrics
	QoS       byte
}

// commandTimeout bounds work triggered by an MQTT command.
const commandTimeout = 30 * time.Second

// Session owns every store and engine for one controller connection.
// Nothing in the module is global; everything hangs off a Session.
type Session struct {
	Devices   *device.Registry
	Responses *correlation.Engine
	Control   *control.Controller
	Discovery *discovery.Workflow
	Scenes    *scene.Engine
	Schedules *schedule.Engine

	publisher Publisher
	metrics   Metrics
	qos       byte
	topics    mqtt.Topics
	logger    *logging.Logger
	started   time.Time
}

// New wires a session around sender. Call HandleMessage for every inbound
// frame and Start once the channel is up.
func New(sender Sender, opts Options, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.Default()
	}

	s := &Session{
		Devices:   device.NewRegistry(device.NewRooms(opts.Rooms)),
		Responses: correlation.New(),
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		qos:       opts.QoS,
		logger:    logger.Component("session"),
		started:   time.Now(),
	}
	s.Devices.SetLogger(logger.Component("devices"))

	s.Control = control.NewController(s.Devices, sender, s.Responses, opts.QueryTimeout, logger.Component("control"))
	s.Control.AddObserver(s)

	s.Discovery = discovery.New(s.Devices, sender, s.Responses, opts.DiscoveryBudget, logger.Component("discovery"))

	sceneStore := scene.NewRegistry(opts.SceneRepo)
	sceneStore.SetLogger(logger.Component("scenes"))
	s.Scenes = scene.NewEngine(sceneStore, s.Devices, s.Control, logger.Component("scenes"))

	s.Schedules = schedule.NewEngine(opts.ScheduleRepo, s, opts.Schedule, logger.Component("schedules"))
	return s
}

// HandleMessage routes one inbound frame. Tagged responses go to the
// correlation engine; anything nobody is waiting for is dropped.
func (s *Session) HandleMessage(raw string) {
	msg := protocol.ParseMessage(raw)
	if !msg.Tagged {
		if msg.Tag != "" {
			s.logger.Info("session token received", "token", msg.Tag)
		}
		return
	}
	if !s.Responses.Deliver(msg.Tag, msg.Value) {
		s.logger.Debug("dropping unsolicited message", "tag", msg.Tag)
	}
}

// Start loads stored scenes and schedules, runs discovery, activates
// enabled schedules and subscribes to MQTT commands. A failed discovery is
// logged and leaves the registry empty; only storage errors are returned.
func (s *Session) Start(ctx context.Context) error {
	if err := s.Scenes.Registry().RefreshCache(ctx); err != nil {
		return fmt.Errorf("loading scenes: %w", err)
	}
	if err := s.Schedules.RefreshCache(ctx); err != nil {
		return fmt.Errorf("loading schedules: %w", err)
	}

	if _, err := s.RunDiscovery(ctx); err != nil {
		s.logger.Warn("initial discovery failed", "error", err)
	}

	activated := s.Schedules.ActivateEnabled()
	s.logger.Info("schedules activated", "count", activated)

	if err := s.subscribeCommands(); err != nil {
		return err
	}
	return nil
}

// RunDiscovery runs one discovery pass and publishes its outcome.
func (s *Session) RunDiscovery(ctx context.Context) (discovery.Result, error) {
	res, err := s.Discovery.Run(ctx)
	if err != nil && res.State != discovery.StateFailed {
		// ErrInProgress: another pass owns the outcome.
		return res, err
	}

	if s.metrics != nil && err == nil {
		s.metrics.WriteDiscovery(res.Advertised, res.Inserted, res.Elapsed)
	}
	s.publish(s.topics.Discovery(), newDiscoveryEvent(res, err), true)
	return res, err
}

// Reconnected re-runs discovery after the transport has redialled. The
// previous device set is kept until the new count arrives.
func (s *Session) Reconnected() {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if _, err := s.RunDiscovery(ctx); err != nil {
		s.logger.Warn("rediscovery after reconnect failed", "error", err)
	}
}

// LoadScene applies a scene and publishes the outcome. source names what
// triggered it (api, mqtt, schedule).
func (s *Session) LoadScene(ctx context.Context, name, source string) (scene.LoadResult, error) {
	res, err := s.Scenes.Load(ctx, name)
	if err != nil {
		return res, err
	}

	if s.metrics != nil {
		s.metrics.WriteSceneApplied(name, res.Applied, res.Members)
	}
	s.publish(s.topics.SceneApplied(name), newSceneEvent(res, source), false)
	return res, nil
}

// Uptime returns how long the session has existed.
func (s *Session) Uptime() time.Duration {
	return time.Since(s.started)
}

// Close stops every schedule evaluator.
func (s *Session) Close() {
	s.Schedules.Stop()
}

// LevelChanged fans a device level change out to MQTT and metrics.
func (s *Session) LevelChanged(d device.Device) {
	room := s.Devices.RoomName(d.Room)
	if s.metrics != nil {
		s.metrics.WriteLightLevel(d.ID, room, d.Level)
	}
	s.publish(s.topics.LightState(d.ID), newLightState(d, room), true)
}

func (s *Session) publish(topic string, v any, retained bool) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(topic, v, retained); err != nil {
		s.logger.Debug("mqtt publish failed", "topic", topic, "error", err)
	}
}
