// Package config holds the engine's user-facing configuration, loaded through
// viper from a config file, environment variables (FLOW_ prefix), and flags.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete configuration
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Logging LoggingConfig `mapstructure:"logging"`
	TUI     TUIConfig     `mapstructure:"tui"`
}

// EngineConfig controls default task execution behavior.
// Manifest tasks that do not set their own values inherit these.
type EngineConfig struct {
	// DefaultRetries is the number of additional attempts after the first
	DefaultRetries int `mapstructure:"default_retries"`
	// DefaultWaitMs is the delay before each retry attempt, in milliseconds
	DefaultWaitMs int `mapstructure:"default_wait_ms"`
}

// LoggingConfig controls structured log output
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// Dir is the directory for the log file; empty logs to stderr
	Dir string `mapstructure:"dir"`
}

// TUIConfig controls the watch view
type TUIConfig struct {
	// RefreshIntervalMs is how often the watch view re-renders the snapshot
	// between events, in milliseconds
	RefreshIntervalMs int `mapstructure:"refresh_interval_ms"`
}

// DefaultWait returns the retry delay as a time.Duration
func (c *EngineConfig) DefaultWait() time.Duration {
	return time.Duration(c.DefaultWaitMs) * time.Millisecond
}

// RefreshInterval returns the watch refresh interval as a time.Duration
func (c *TUIConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMs) * time.Millisecond
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			DefaultRetries: 0,
			DefaultWaitMs:  0,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
		},
		TUI: TUIConfig{
			RefreshIntervalMs: 250,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("engine.default_retries", defaults.Engine.DefaultRetries)
	viper.SetDefault("engine.default_wait_ms", defaults.Engine.DefaultWaitMs)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	viper.SetDefault("tui.refresh_interval_ms", defaults.TUI.RefreshIntervalMs)
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
		return filepath.Join(xdg, "flow")
	}
	// Fall back to ~/.config/flow
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flow"
	}
	return filepath.Join(home, ".config", "flow")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
