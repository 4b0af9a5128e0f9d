// Package hostconfig loads the gateway host's process configuration from
// environment variables.
package hostconfig

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config is the host process configuration.
type Config struct {
	// ManifestPath points at the extension manifest document.
	ManifestPath string `env:"RIVERRUN_MANIFEST" envDefault:"/etc/riverrun/manifest.yaml"`

	// DevicePath points at the device configuration document.
	DevicePath string `env:"RIVERRUN_DEVICE_MANIFEST" envDefault:"/etc/riverrun/device.yaml"`

	// GrantStorePath is where device-persisted grants live.
	GrantStorePath string `env:"RIVERRUN_GRANTS_PATH" envDefault:"/var/lib/riverrun/grants.yaml"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `env:"RIVERRUN_LOG_LEVEL" envDefault:"info"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured level string onto slog.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
