// Package config loads application configuration from flags, environment
// and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `mapstructure:"db-path"`

	// DeviceURL is the probe's base URL on its access point.
	DeviceURL string `mapstructure:"device-url"`

	// HTTPTimeout bounds every request to the probe.
	HTTPTimeout time.Duration `mapstructure:"http-timeout"`
}

// Load reads configuration from defaults, an optional config file and
// environment variables (SOILLOG_DB_PATH, SOILLOG_DEVICE_URL, ...).
func Load() (*Config, error) {
	viper.SetDefault("db-path", "soillog.db")
	viper.SetDefault("device-url", "http://192.168.4.1")
	viper.SetDefault("http-timeout", 5*time.Second)

	viper.SetEnvPrefix("SOILLOG")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.soillog")

	// Config file is optional.
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db-path cannot be empty")
	}
	if c.DeviceURL == "" {
		return fmt.Errorf("device-url cannot be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http-timeout must be positive")
	}
	return nil
}
