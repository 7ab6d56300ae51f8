package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the lighting scheduler.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Controller ControllerConfig `yaml:"controller"`
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	API        APIConfig        `yaml:"api"`
	Schedules  ScheduleConfig   `yaml:"schedules"`
	Rooms      map[int]string   `yaml:"rooms"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SiteConfig identifies the coach this instance controls.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// ControllerConfig describes the WebSocket endpoint of the embedded control unit.
type ControllerConfig struct {
	// URL is the ws:// or wss:// address of the control unit.
	URL string `yaml:"url"`

	// AuthToken is sent as the first frame after connecting, if set.
	AuthToken string `yaml:"auth_token"`

	// DiscoveryBudget is the overall discovery deadline (seconds).
	DiscoveryBudget int `yaml:"discovery_budget"`

	// QueryTimeout is the per-request timeout for brightness queries (seconds).
	QueryTimeout int `yaml:"query_timeout"`

	// Reconnect controls redial behaviour after the channel drops.
	Reconnect ReconnectConfig `yaml:"reconnect"`
}

// ReconnectConfig contains reconnection back-off settings (seconds).
type ReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the HTTP API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// ScheduleConfig tunes the schedule evaluators.
type ScheduleConfig struct {
	// TickPeriod is the evaluator period in seconds. Default: 60
	TickPeriod int `yaml:"tick_period"`

	// DedupeMinute suppresses a second firing of the same event within
	// one wall-clock minute. Default: true
	DedupeMinute bool `yaml:"dedupe_minute"`

	// Timezone is the IANA zone used for HH:MM matching. Empty means local.
	Timezone string `yaml:"timezone"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. .env file in the working directory, if present
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: NEWMAR_SECTION_KEY
// For example: NEWMAR_CONTROLLER_URL, NEWMAR_DATABASE_PATH
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// A missing .env is the normal case outside development.
	_ = godotenv.Load() //nolint:errcheck // optional file

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "coach-001",
			Name: "Newmar",
		},
		Controller: ControllerConfig{
			URL:             "ws://192.168.1.4:8888/ws",
			DiscoveryBudget: 10,
			QueryTimeout:    3,
			Reconnect: ReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     30,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/newmar.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "newmar-lighting",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		Schedules: ScheduleConfig{
			TickPeriod:   60,
			DedupeMinute: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NEWMAR_CONTROLLER_URL"); v != "" {
		cfg.Controller.URL = v
	}
	if v := os.Getenv("NEWMAR_CONTROLLER_AUTH_TOKEN"); v != "" {
		cfg.Controller.AuthToken = v
	}
	if v := os.Getenv("NEWMAR_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("NEWMAR_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("NEWMAR_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("NEWMAR_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("NEWMAR_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("NEWMAR_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("NEWMAR_SCHEDULES_TIMEZONE"); v != "" {
		cfg.Schedules.Timezone = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Controller.URL == "" {
		errs = append(errs, "controller.url is required")
	} else if !strings.HasPrefix(c.Controller.URL, "ws://") && !strings.HasPrefix(c.Controller.URL, "wss://") {
		errs = append(errs, "controller.url must use ws:// or wss://")
	}
	if c.Controller.DiscoveryBudget < 1 {
		errs = append(errs, "controller.discovery_budget must be at least 1 second")
	}
	if c.Controller.QueryTimeout < 1 {
		errs = append(errs, "controller.query_timeout must be at least 1 second")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Schedules.TickPeriod < 1 {
		errs = append(errs, "schedules.tick_period must be at least 1 second")
	}
	if c.Schedules.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedules.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("schedules.timezone %q is not a known zone", c.Schedules.Timezone))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DiscoveryBudget returns the discovery deadline as a Duration.
func (c *Config) DiscoveryBudget() time.Duration {
	return time.Duration(c.Controller.DiscoveryBudget) * time.Second
}

// QueryTimeout returns the brightness query timeout as a Duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Controller.QueryTimeout) * time.Second
}

// TickPeriod returns the schedule evaluator period as a Duration.
func (c *Config) TickPeriod() time.Duration {
	return time.Duration(c.Schedules.TickPeriod) * time.Second
}

// Location returns the zone used for schedule matching.
// Validate has already rejected unknown zones.
func (c *Config) Location() *time.Location {
	if c.Schedules.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Schedules.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
