// Newmar lighting client.
//
// Connects to the coach's embedded lighting controller over WebSocket,
// discovers its lights, and runs saved scenes and time-of-day schedules.
// State and events are mirrored to MQTT and InfluxDB when those are enabled,
// and an HTTP API exposes status and commands.
//
// Usage:
//
//	newmar                       run until SIGINT/SIGTERM
//	newmar -export backup.yaml   write scenes and schedules, then exit
//	newmar -import backup.yaml   load scenes and schedules, then exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/api"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/backup"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/infrastructure/config"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/infrastructure/database"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/infrastructure/influxdb"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/infrastructure/logging"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/infrastructure/mqtt"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/scene"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/schedule"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/session"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/transport"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// options are the command-line flags.
type options struct {
	configPath string
	exportPath string
	importPath string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("newmar", flag.ContinueOnError)

	var opts options
	fs.StringVar(&opts.configPath, "config", getConfigPath(), "path to config.yaml")
	fs.StringVar(&opts.exportPath, "export", "", "write scenes and schedules to this bundle file and exit")
	fs.StringVar(&opts.importPath, "import", "", "load scenes and schedules from this bundle file and exit")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.exportPath != "" && opts.importPath != "" {
		return opts, fmt.Errorf("-export and -import are mutually exclusive")
	}
	return opts, nil
}

// getConfigPath returns NEWMAR_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("NEWMAR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// run is the application logic, separated from main for testability.
//
// Parameters:
//   - ctx: cancelled on SIGINT/SIGTERM
//   - opts: parsed command-line flags
//
// Returns:
//   - error: nil on clean shutdown, otherwise the first startup failure
func run(ctx context.Context, opts options) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting newmar lighting",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", opts.configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	sceneRepo := scene.NewSQLiteRepository(db.DB)
	scheduleRepo := schedule.NewSQLiteRepository(db.DB)

	if opts.exportPath != "" || opts.importPath != "" {
		return runBackup(ctx, opts, sceneRepo, scheduleRepo, log)
	}

	sessOpts := session.Options{
		Rooms:           cfg.Rooms,
		DiscoveryBudget: cfg.DiscoveryBudget(),
		QueryTimeout:    cfg.QueryTimeout(),
		Schedule: schedule.Options{
			TickPeriod:   cfg.TickPeriod(),
			DedupeMinute: cfg.Schedules.DedupeMinute,
			Location:     cfg.Location(),
		},
		SceneRepo:    sceneRepo,
		ScheduleRepo: scheduleRepo,
		QoS:          byte(cfg.MQTT.QoS), //nolint:gosec // validated to 0..2
	}
	health := map[string]api.HealthChecker{"database": db}

	// Connect to MQTT broker (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		mqttClient.SetLogger(log.Component("mqtt"))
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		sessOpts.Publisher = mqttClient
		health["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		sessOpts.Metrics = influxClient
		health["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Dial the lighting controller
	client, err := transport.Connect(ctx, transport.ConfigFrom(cfg.Controller), log.Component("transport"))
	if err != nil {
		return fmt.Errorf("connecting to controller: %w", err)
	}
	defer func() {
		log.Info("closing controller connection")
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing controller connection", "error", closeErr)
		}
	}()
	health["transport"] = client

	sess := session.New(client, sessOpts, log)
	defer sess.Close()
	client.SetOnMessage(sess.HandleMessage)
	client.SetOnConnect(sess.Reconnected)

	if startErr := sess.Start(ctx); startErr != nil {
		return fmt.Errorf("starting session: %w", startErr)
	}
	log.Info("session started",
		"devices", sess.Devices.Count(),
		"scenes", sess.Scenes.Registry().Count(),
		"schedules_active", len(sess.Schedules.Active()),
	)

	// Start HTTP API (if enabled)
	if cfg.API.Enabled {
		srv, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.Component("api"),
			Session: sess,
			Health:  health,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred closes run in reverse: API, schedules, controller, InfluxDB,
	// MQTT, database.
	return nil
}

// runBackup handles -export and -import without dialling the controller.
func runBackup(ctx context.Context, opts options, sceneRepo scene.Repository, scheduleRepo schedule.Repository, log *logging.Logger) error {
	scenes := scene.NewRegistry(sceneRepo)
	scenes.SetLogger(log.Component("scenes"))
	if err := scenes.RefreshCache(ctx); err != nil {
		return fmt.Errorf("loading scenes: %w", err)
	}

	schedules := schedule.NewEngine(scheduleRepo, nil, schedule.Options{}, log.Component("schedules"))
	defer schedules.Stop()
	if err := schedules.RefreshCache(ctx); err != nil {
		return fmt.Errorf("loading schedules: %w", err)
	}

	if opts.exportPath != "" {
		b, err := backup.WriteFile(opts.exportPath, scenes, schedules)
		if err != nil {
			return fmt.Errorf("exporting: %w", err)
		}
		log.Info("bundle exported", "path", opts.exportPath, "scenes", len(b.Scenes), "schedules", len(b.Schedules))
		return nil
	}

	res, err := backup.ReadFile(ctx, opts.importPath, scenes, schedules)
	if err != nil {
		return fmt.Errorf("importing: %w", err)
	}
	log.Info("bundle imported", "path", opts.importPath, "scenes", res.Scenes, "schedules", res.Schedules)
	return nil
}
