package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, "detection:\n  poll_interval_seconds: 5\n")

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Stop()
	w.Start()

	writeConfigFile(t, path, "detection:\n  poll_interval_seconds: 42\n")

	select {
	case cfg := <-reloaded:
		if cfg.Detection.PollIntervalSeconds != 42 {
			t.Errorf("expected reloaded value 42, got %d", cfg.Detection.PollIntervalSeconds)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherReportsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, "detection:\n  poll_interval_seconds: 5\n")

	failed := make(chan error, 1)
	w, err := NewWatcher(path, func(*Config) {
		t.Error("invalid config should not trigger a reload")
	}, func(err error) {
		select {
		case failed <- err:
		default:
		}
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Stop()
	w.Start()

	writeConfigFile(t, path, "detection:\n  poll_interval_seconds: 0\n")

	select {
	case <-failed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, "detection:\n  poll_interval_seconds: 5\n")

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Stop()
	w.Start()

	writeConfigFile(t, filepath.Join(dir, "other.yaml"), "unrelated: true\n")

	select {
	case <-reloaded:
		t.Error("sibling file change triggered a reload")
	case <-time.After(time.Second):
	}
}
