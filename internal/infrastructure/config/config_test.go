package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
site:
  id: "test-coach"
controller:
  url: "ws://10.0.0.4:8888/ws"
  discovery_budget: 12
database:
  path: "/tmp/test.db"
schedules:
  tick_period: 30
  dedupe_minute: false
rooms:
  1: "Galley"
  9: "Garage"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-coach" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-coach")
	}
	if cfg.Controller.URL != "ws://10.0.0.4:8888/ws" {
		t.Errorf("Controller.URL = %q", cfg.Controller.URL)
	}
	if cfg.DiscoveryBudget() != 12*time.Second {
		t.Errorf("DiscoveryBudget() = %v, want 12s", cfg.DiscoveryBudget())
	}
	if cfg.TickPeriod() != 30*time.Second {
		t.Errorf("TickPeriod() = %v, want 30s", cfg.TickPeriod())
	}
	if cfg.Schedules.DedupeMinute {
		t.Error("DedupeMinute = true, want false from file")
	}
	if cfg.Rooms[9] != "Garage" {
		t.Errorf("Rooms[9] = %q, want %q", cfg.Rooms[9], "Garage")
	}
	// Defaults survive when the file does not mention them.
	if cfg.QueryTimeout() != 3*time.Second {
		t.Errorf("QueryTimeout() = %v, want default 3s", cfg.QueryTimeout())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
site:
  id: "test-coach"
`)
	t.Setenv("NEWMAR_CONTROLLER_URL", "wss://coach.local/ws")
	t.Setenv("NEWMAR_DATABASE_PATH", "/var/lib/newmar/test.db")
	t.Setenv("NEWMAR_API_PORT", "9090")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Controller.URL != "wss://coach.local/ws" {
		t.Errorf("Controller.URL = %q, want env override", cfg.Controller.URL)
	}
	if cfg.Database.Path != "/var/lib/newmar/test.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing site ID",
			mutate:  func(c *Config) { c.Site.ID = "" },
			wantErr: "site.id",
		},
		{
			name:    "http controller url",
			mutate:  func(c *Config) { c.Controller.URL = "http://coach.local" },
			wantErr: "ws://",
		},
		{
			name:    "zero discovery budget",
			mutate:  func(c *Config) { c.Controller.DiscoveryBudget = 0 },
			wantErr: "discovery_budget",
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "influx enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: "influxdb.url",
		},
		{
			name: "api port ignored when disabled",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.API.Port = 0
			},
		},
		{
			name: "api port checked when enabled",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 70000
			},
			wantErr: "api.port",
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Schedules.Timezone = "Mars/Olympus" },
			wantErr: "schedules.timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Location(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Location() != time.Local {
		t.Error("empty timezone should use time.Local")
	}

	cfg.Schedules.Timezone = "UTC"
	if cfg.Location().String() != "UTC" {
		t.Errorf("Location() = %v, want UTC", cfg.Location())
	}
}
