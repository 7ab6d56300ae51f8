package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dbPath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
site:
  id: test-coach

controller:
  url: "ws://127.0.0.1:1/ws"

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestParseFlags(t *testing.T) {
	t.Setenv("NEWMAR_CONFIG", "/etc/newmar/config.yaml")

	opts, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.configPath != "/etc/newmar/config.yaml" {
		t.Errorf("configPath = %q", opts.configPath)
	}

	opts, err = parseFlags([]string{"-config", "c.yaml", "-export", "out.yaml"})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.configPath != "c.yaml" || opts.exportPath != "out.yaml" {
		t.Errorf("opts = %+v", opts)
	}

	if _, err := parseFlags([]string{"-export", "a", "-import", "b"}); err == nil {
		t.Error("-export with -import should fail")
	}
}

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("NEWMAR_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q", got)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, options{configPath: "/nonexistent/path/config.yaml"})
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("run() error = %v, want loading config failure", err)
	}
}

func TestRun_UnreachableController(t *testing.T) {
	cfgPath := writeConfig(t, filepath.Join(t.TempDir(), "newmar.db"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := run(ctx, options{configPath: cfgPath})
	if err == nil || !strings.Contains(err.Error(), "connecting to controller") {
		t.Fatalf("run() error = %v, want controller failure", err)
	}
}

func TestRun_ExportImport(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "bundle.yaml")
	if err := os.WriteFile(bundle, []byte(`version: 1
scenes:
  - name: Evening
    members:
      - device_id: 12
        name: Galley Ceiling
        level: 35
        room: 1
schedules:
  - name: Nightly
    enabled: true
    events:
      - time: "23:00"
        days: [mon, tue]
        action:
          kind: all_off
`), 0o600); err != nil {
		t.Fatalf("writing bundle: %v", err)
	}

	cfgPath := writeConfig(t, filepath.Join(dir, "newmar.db"))
	ctx := context.Background()

	if err := run(ctx, options{configPath: cfgPath, importPath: bundle}); err != nil {
		t.Fatalf("import run() error = %v", err)
	}

	out := filepath.Join(dir, "out.json")
	if err := run(ctx, options{configPath: cfgPath, exportPath: out}); err != nil {
		t.Fatalf("export run() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	for _, want := range []string{`"Evening"`, `"Nightly"`, `"all_off"`, `"level": 35`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("export missing %s:\n%s", want, data)
		}
	}
}
