package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete WorkLens configuration
type Config struct {
	Detection DetectionConfig `mapstructure:"detection"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Idle      IdleConfig      `mapstructure:"idle"`
	Session   SessionConfig   `mapstructure:"session"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DetectionConfig controls window polling and the detection rule set
type DetectionConfig struct {
	// PollIntervalSeconds is how often window state is sampled (default: 5)
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
	// RevivalWindowMinutes is how long a stopped task remains revivable
	// when its context reappears (default: 5)
	RevivalWindowMinutes int `mapstructure:"revival_window_minutes"`
	// Rules maps window processes and titles to task categories.
	// Rules are evaluated in order; the first match wins.
	Rules []RuleConfig `mapstructure:"rules"`
	// Domains restricts browser detections to matching address-bar URLs.
	// A browser window whose URL matches no domain rule is ignored.
	Domains []DomainRuleConfig `mapstructure:"domains"`
}

// RuleConfig is one detection rule
type RuleConfig struct {
	// ProcessName matches the window's process (case-insensitive)
	ProcessName string `mapstructure:"process_name"`
	// TitleContains further restricts matches to titles containing this
	// substring. Empty matches any title.
	TitleContains string `mapstructure:"title_contains"`
	// Category is the task category to assign: "code_review",
	// "code_editor", "ide", "document", "spreadsheet", "other"
	Category string `mapstructure:"category"`
	// Label is the human-readable application name used in task names
	Label string `mapstructure:"label"`
	// ProductSuffix is the trailing product name stripped from window
	// titles (e.g. " - Visual Studio Code")
	ProductSuffix string `mapstructure:"product_suffix"`
}

// DomainRuleConfig is one browser domain rule
type DomainRuleConfig struct {
	// DomainContains matches URLs containing this substring
	DomainContains string `mapstructure:"domain_contains"`
	// TaskName overrides the rule label for matching detections
	TaskName string `mapstructure:"task_name"`
}

// BrowserConfig controls address-bar reading
type BrowserConfig struct {
	// AddressBarCommands maps a browser process name to the helper
	// command that prints its address-bar URL. {handle} and {pid} are
	// replaced with the window handle and process ID.
	AddressBarCommands map[string][]string `mapstructure:"address_bar_commands"`
}

// WorkspaceConfig controls editor workspace resolution
type WorkspaceConfig struct {
	// Queries maps an editor process name to the helper command that
	// reports its open workspace. Output is parsed with JSONPath when
	// json_path is set, otherwise used verbatim.
	Queries map[string]WorkspaceQueryConfig `mapstructure:"queries"`
}

// WorkspaceQueryConfig is one workspace helper command
type WorkspaceQueryConfig struct {
	Command  []string `mapstructure:"command"`
	JSONPath string   `mapstructure:"json_path"`
}

// IdleConfig controls idle detection
type IdleConfig struct {
	// ThresholdSeconds is how long without input counts as idle
	// (default: 300, 0 = disabled)
	ThresholdSeconds int `mapstructure:"threshold_seconds"`
	// PollIntervalSeconds is how often the idle source is sampled (default: 1)
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
}

// SessionConfig controls persistence
type SessionConfig struct {
	// DataDir is where the session file and archive live.
	// If empty, defaults to XDG_DATA_HOME/worklens or ~/.local/share/worklens.
	// Supports ~ for home directory expansion.
	DataDir string `mapstructure:"data_dir"`
	// AutosaveIntervalSeconds is how often the session is written even
	// without task changes (default: 30, 0 = only on changes and exit)
	AutosaveIntervalSeconds int `mapstructure:"autosave_interval_seconds"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether file logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Detection: DetectionConfig{
			PollIntervalSeconds:  5,
			RevivalWindowMinutes: 5,
			Rules: []RuleConfig{
				{ProcessName: "firefox", Category: "code_review", Label: "Firefox", ProductSuffix: " — Mozilla Firefox"},
				{ProcessName: "code", Category: "code_editor", Label: "VS Code", ProductSuffix: " - Visual Studio Code"},
				{ProcessName: "goland", Category: "ide", Label: "GoLand"},
				{ProcessName: "soffice.bin", TitleContains: "Calc", Category: "spreadsheet", Label: "LibreOffice Calc", ProductSuffix: " - LibreOffice Calc"},
				{ProcessName: "soffice.bin", Category: "document", Label: "LibreOffice Writer", ProductSuffix: " - LibreOffice Writer"},
			},
			Domains: []DomainRuleConfig{
				{DomainContains: "github.com", TaskName: "GitHub"},
			},
		},
		Browser: BrowserConfig{
			AddressBarCommands: map[string][]string{},
		},
		Workspace: WorkspaceConfig{
			Queries: map[string]WorkspaceQueryConfig{},
		},
		Idle: IdleConfig{
			ThresholdSeconds:    300,
			PollIntervalSeconds: 1,
		},
		Session: SessionConfig{
			DataDir:                 "",
			AutosaveIntervalSeconds: 30,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// PollInterval returns the detection poll interval as a time.Duration
func (c *DetectionConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// RevivalWindow returns the revival window as a time.Duration
func (c *DetectionConfig) RevivalWindow() time.Duration {
	return time.Duration(c.RevivalWindowMinutes) * time.Minute
}

// Threshold returns the idle threshold as a time.Duration (0 means disabled)
func (c *IdleConfig) Threshold() time.Duration {
	return time.Duration(c.ThresholdSeconds) * time.Second
}

// PollInterval returns the idle poll interval as a time.Duration
func (c *IdleConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// AutosaveInterval returns the autosave interval as a time.Duration (0 means disabled)
func (c *SessionConfig) AutosaveInterval() time.Duration {
	return time.Duration(c.AutosaveIntervalSeconds) * time.Second
}

// ResolveDataDir returns the resolved data directory path.
// If DataDir is empty, it returns the default under XDG_DATA_HOME.
// If DataDir starts with ~, it expands to the user's home directory.
func (c *SessionConfig) ResolveDataDir() string {
	if c.DataDir == "" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "worklens")
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return ".worklens"
		}
		return filepath.Join(home, ".local", "share", "worklens")
	}

	path := c.DataDir
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}
	return path
}

// SessionFile returns the session file path under the data directory
func (c *SessionConfig) SessionFile() string {
	return filepath.Join(c.ResolveDataDir(), "session.json")
}

// ArchiveFile returns the archive database path under the data directory
func (c *SessionConfig) ArchiveFile() string {
	return filepath.Join(c.ResolveDataDir(), "archive.db")
}

// LogFile returns the log file path under the data directory
func (c *SessionConfig) LogFile() string {
	return filepath.Join(c.ResolveDataDir(), "worklens.log")
}

// SetDefaults registers default values with the global viper
func SetDefaults() {
	setDefaultsOn(viper.GetViper())
}

// setDefaultsOn registers default values with the given viper instance
func setDefaultsOn(v *viper.Viper) {
	defaults := Default()

	// Detection defaults
	v.SetDefault("detection.poll_interval_seconds", defaults.Detection.PollIntervalSeconds)
	v.SetDefault("detection.revival_window_minutes", defaults.Detection.RevivalWindowMinutes)
	v.SetDefault("detection.rules", defaults.Detection.Rules)
	v.SetDefault("detection.domains", defaults.Detection.Domains)

	// Browser defaults
	v.SetDefault("browser.address_bar_commands", defaults.Browser.AddressBarCommands)

	// Workspace defaults
	v.SetDefault("workspace.queries", defaults.Workspace.Queries)

	// Idle defaults
	v.SetDefault("idle.threshold_seconds", defaults.Idle.ThresholdSeconds)
	v.SetDefault("idle.poll_interval_seconds", defaults.Idle.PollIntervalSeconds)

	// Session defaults
	v.SetDefault("session.data_dir", defaults.Session.DataDir)
	v.SetDefault("session.autosave_interval_seconds", defaults.Session.AutosaveIntervalSeconds)

	// Logging defaults
	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// reread loads the config file at path into a fresh viper instance,
// applying the same defaults and validation as Load. Used by the
// watcher so reloads never mutate the global viper state.
func reread(path string) (*Config, error) {
	v := viper.New()
	setDefaultsOn(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "worklens")
	}
	// Fall back to ~/.config/worklens
	home, err := os.UserHomeDir()
	if err != nil {
		return ".worklens"
	}
	return filepath.Join(home, ".config", "worklens")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
