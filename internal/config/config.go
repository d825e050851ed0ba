// Package config defines the taskmux configuration schema and viper wiring.
// Configuration is loaded from a YAML file, environment variables with the
// TASKMUX_ prefix, and built-in defaults, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete taskmux configuration
type Config struct {
	DataDir    string           `mapstructure:"data_dir"`
	Tmux       TmuxConfig       `mapstructure:"tmux"`
	Capture    CaptureConfig    `mapstructure:"capture"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Cleanup    CleanupConfig    `mapstructure:"cleanup"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// TmuxConfig controls how task sessions are created
type TmuxConfig struct {
	// Socket is the tmux socket name used for all task sessions.
	// Using a dedicated socket keeps task sessions off the user's
	// default tmux server.
	Socket string `mapstructure:"socket"`
	// Width is the width of the session pane in columns
	Width int `mapstructure:"width"`
	// Height is the height of the session pane in rows
	Height int `mapstructure:"height"`
	// HistoryLimit is the number of scrollback lines kept by tmux
	HistoryLimit int `mapstructure:"history_limit"`
}

// CaptureConfig controls output capture behavior
type CaptureConfig struct {
	// IntervalMs is the fallback polling cadence in milliseconds
	IntervalMs int `mapstructure:"interval_ms"`
	// PreferStream enables pipe-pane streaming when available.
	// When false, every task uses the polling fallback.
	PreferStream bool `mapstructure:"prefer_stream"`
	// MaxPollers caps the number of concurrent fallback polling loops
	MaxPollers int `mapstructure:"max_pollers"`
	// SnapshotLines is the default line count for output snapshots
	SnapshotLines int `mapstructure:"snapshot_lines"`
}

// SupervisorConfig controls lifecycle behavior
type SupervisorConfig struct {
	// GracePeriodMs is how long a non-forced stop waits after sending
	// an interrupt before escalating to kill, in milliseconds
	GracePeriodMs int `mapstructure:"grace_period_ms"`
}

// CleanupConfig controls retention of finished tasks
type CleanupConfig struct {
	// MaxAgeHours is the default age threshold for the cleanup command
	MaxAgeHours int `mapstructure:"max_age_hours"`
	// Auto runs a retention pass before every list command
	Auto bool `mapstructure:"auto"`
}

// NotifyConfig controls terminal-transition notifications
type NotifyConfig struct {
	// Enabled turns notification delivery on
	Enabled bool `mapstructure:"enabled"`
	// Command is a shell command to run per notification. The event is
	// written to its stdin as JSON. When empty, notifications are only
	// logged.
	Command string `mapstructure:"command"`
}

// LoggingConfig controls the supervisor debug log
type LoggingConfig struct {
	// Level is the minimum log level (debug/info/warn/error)
	Level string `mapstructure:"level"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Tmux: TmuxConfig{
			Socket:       "taskmux",
			Width:        200,
			Height:       50,
			HistoryLimit: 10000,
		},
		Capture: CaptureConfig{
			IntervalMs:    1000,
			PreferStream:  true,
			MaxPollers:    32,
			SnapshotLines: 50,
		},
		Supervisor: SupervisorConfig{
			GracePeriodMs: 1500,
		},
		Cleanup: CleanupConfig{
			MaxAgeHours: 24,
			Auto:        false,
		},
		Notify: NotifyConfig{
			Enabled: false,
			Command: "",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("data_dir", defaults.DataDir)

	viper.SetDefault("tmux.socket", defaults.Tmux.Socket)
	viper.SetDefault("tmux.width", defaults.Tmux.Width)
	viper.SetDefault("tmux.height", defaults.Tmux.Height)
	viper.SetDefault("tmux.history_limit", defaults.Tmux.HistoryLimit)

	viper.SetDefault("capture.interval_ms", defaults.Capture.IntervalMs)
	viper.SetDefault("capture.prefer_stream", defaults.Capture.PreferStream)
	viper.SetDefault("capture.max_pollers", defaults.Capture.MaxPollers)
	viper.SetDefault("capture.snapshot_lines", defaults.Capture.SnapshotLines)

	viper.SetDefault("supervisor.grace_period_ms", defaults.Supervisor.GracePeriodMs)

	viper.SetDefault("cleanup.max_age_hours", defaults.Cleanup.MaxAgeHours)
	viper.SetDefault("cleanup.auto", defaults.Cleanup.Auto)

	viper.SetDefault("notify.enabled", defaults.Notify.Enabled)
	viper.SetDefault("notify.command", defaults.Notify.Command)

	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load unmarshals the current viper state into a Config
func Load() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.DataDir = ExpandPath(cfg.DataDir)
	return cfg, nil
}

// GracePeriod returns the stop grace period as a duration
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Supervisor.GracePeriodMs) * time.Millisecond
}

// CaptureInterval returns the fallback polling cadence as a duration
func (c *Config) CaptureInterval() time.Duration {
	return time.Duration(c.Capture.IntervalMs) * time.Millisecond
}

// LogsDir returns the directory holding per-task output logs
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigDir returns the directory searched for the config file
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskmux")
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// defaultDataDir returns the default task state directory
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskmux"
	}
	return filepath.Join(home, ".taskmux")
}
