// Package config loads application configuration from a config file and
// environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sanctuary-live/internal/logger"
)

// Config holds all application configuration
type Config struct {
	// Backend configuration
	APIBaseURL string

	// Polling configuration
	PollInterval time.Duration

	// Local state
	StatePath string

	// Logging
	LogLevel string

	// Page metadata probing for streams hosted off-platform
	MetadataProbe bool
}

// Load reads configuration from an optional config file and the environment.
// Environment variables use the SANCTUARY_ prefix and override file values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("api_base_url", "")
	v.SetDefault("poll_interval", "3s")
	v.SetDefault("state_path", defaultStatePath())
	v.SetDefault("log_level", "info")
	v.SetDefault("metadata_probe", true)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "sanctuary-live"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("SANCTUARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything can come from the
		// environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		APIBaseURL:    strings.TrimRight(v.GetString("api_base_url"), "/"),
		PollInterval:  v.GetDuration("poll_interval"),
		StatePath:     v.GetString("state_path"),
		LogLevel:      v.GetString("log_level"),
		MetadataProbe: v.GetBool("metadata_probe"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration values are present and valid
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required (set SANCTUARY_API_BASE_URL)")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("api_base_url must start with http:// or https://, got %q", c.APIBaseURL)
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("poll_interval must be at least 1s, got %s", c.PollInterval)
	}
	if c.StatePath == "" {
		return fmt.Errorf("state_path cannot be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q, want debug, info, warn or error", c.LogLevel)
	}
	return nil
}

// LogConfiguration logs the loaded configuration values
func (c *Config) LogConfiguration(log *logger.Logger) {
	log.Info("configuration loaded", map[string]interface{}{
		"api_base_url":   c.APIBaseURL,
		"poll_interval":  c.PollInterval.String(),
		"state_path":     c.StatePath,
		"log_level":      c.LogLevel,
		"metadata_probe": c.MetadataProbe,
	})
}

// defaultStatePath places the state database under the user config dir,
// falling back to the working directory
func defaultStatePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "sanctuary-live", "state.db")
	}
	return "./data/sanctuary-live.db"
}
