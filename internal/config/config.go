// Package config loads the inputbridge configuration from file,
// environment, and defaults via viper.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete inputbridge configuration.
type Config struct {
	Bridge   BridgeConfig  `mapstructure:"bridge"`
	Language string        `mapstructure:"language"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// BridgeConfig controls the shared store location and the wait timings.
type BridgeConfig struct {
	// Dir is the directory holding the shared record files.
	// Empty means the conventional directory under the system temp dir.
	Dir string `mapstructure:"dir"`
	// PollInterval is how often the waiter checks for a response.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// GraceInterval is how long the keep-alive emitter waits for a real
	// answer before fabricating a synthetic one.
	GraceInterval time.Duration `mapstructure:"grace_interval"`
	// DefaultTimeout is the overall wait deadline when the caller does not
	// supply one. It must exceed GraceInterval by a safety margin so at
	// least one keep-alive cycle can run; the bridge clamps it otherwise.
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	// Watch enables the fsnotify wake on response writes.
	Watch bool `mapstructure:"watch"`
}

// LoggingConfig controls the structured log output.
type LoggingConfig struct {
	// Enabled turns file logging on. When false, commands log nowhere.
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum level to record (debug, info, warn, error).
	Level string `mapstructure:"level"`
	// Dir is where bridge.log is written. Empty means the bridge dir.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB rotates the log when it exceeds this size. 0 disables.
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is how many rotated logs to keep.
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Dir:            "",
			PollInterval:   100 * time.Millisecond,
			GraceInterval:  300 * time.Second,
			DefaultTimeout: 360 * time.Second,
			Watch:          true,
		},
		Language: "en",
		Logging: LoggingConfig{
			Enabled:    false,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers all default values with viper so they apply even
// when no config file is present.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("bridge.dir", defaults.Bridge.Dir)
	viper.SetDefault("bridge.poll_interval", defaults.Bridge.PollInterval)
	viper.SetDefault("bridge.grace_interval", defaults.Bridge.GraceInterval)
	viper.SetDefault("bridge.default_timeout", defaults.Bridge.DefaultTimeout)
	viper.SetDefault("bridge.watch", defaults.Bridge.Watch)

	viper.SetDefault("language", defaults.Language)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load unmarshals the current viper state into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if
// unmarshaling fails.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "inputbridge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".inputbridge"
	}
	return filepath.Join(home, ".config", "inputbridge")
}
