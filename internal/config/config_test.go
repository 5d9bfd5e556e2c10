package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("default config does not validate: %v", ValidationErrors(errs))
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Detection.PollInterval() != 5*time.Second {
		t.Errorf("poll interval: got %v", cfg.Detection.PollInterval())
	}
	if cfg.Detection.RevivalWindow() != 5*time.Minute {
		t.Errorf("revival window: got %v", cfg.Detection.RevivalWindow())
	}
	if cfg.Idle.Threshold() != 5*time.Minute {
		t.Errorf("idle threshold: got %v", cfg.Idle.Threshold())
	}
	if len(cfg.Detection.Rules) == 0 {
		t.Error("expected default detection rules")
	}
}

func TestResolveDataDirExplicit(t *testing.T) {
	cfg := SessionConfig{DataDir: "/var/lib/worklens"}
	if got := cfg.ResolveDataDir(); got != "/var/lib/worklens" {
		t.Errorf("got %q", got)
	}
}

func TestResolveDataDirTildeExpansion(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	cfg := SessionConfig{DataDir: "~/worklens-data"}
	want := filepath.Join(home, "worklens-data")
	if got := cfg.ResolveDataDir(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDataDirXDGDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	cfg := SessionConfig{}
	want := filepath.Join("/tmp/xdg-data", "worklens")
	if got := cfg.ResolveDataDir(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := SessionConfig{DataDir: "/data"}
	if got := cfg.SessionFile(); got != filepath.Join("/data", "session.json") {
		t.Errorf("session file: got %q", got)
	}
	if got := cfg.ArchiveFile(); got != filepath.Join("/data", "archive.db") {
		t.Errorf("archive file: got %q", got)
	}
	if got := cfg.LogFile(); got != filepath.Join("/data", "worklens.log") {
		t.Errorf("log file: got %q", got)
	}
}

func TestConfigDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	want := filepath.Join("/tmp/xdg-config", "worklens")
	if got := ConfigDir(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRereadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
detection:
  poll_interval_seconds: 10
  rules:
    - process_name: goland
      category: ide
      label: GoLand
idle:
  threshold_seconds: 120
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := reread(path)
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if cfg.Detection.PollIntervalSeconds != 10 {
		t.Errorf("poll interval: got %d", cfg.Detection.PollIntervalSeconds)
	}
	if cfg.Idle.ThresholdSeconds != 120 {
		t.Errorf("idle threshold: got %d", cfg.Idle.ThresholdSeconds)
	}
	if len(cfg.Detection.Rules) != 1 || cfg.Detection.Rules[0].ProcessName != "goland" {
		t.Errorf("rules not parsed: %+v", cfg.Detection.Rules)
	}
	// Unset sections fall back to defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level, got %q", cfg.Logging.Level)
	}
}

func TestRereadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
detection:
  poll_interval_seconds: 0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := reread(path); err == nil {
		t.Error("expected validation error for zero poll interval")
	}
}
