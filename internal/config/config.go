// Package config provides configuration management for tvlink using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultHTTPTimeout     = 30 * time.Second
	defaultRetryAttempts   = 2
	defaultRetryDelay      = 1 * time.Second
	defaultPlayerRetries   = 5
	defaultPlayerDelay     = 1500 * time.Millisecond
	defaultStalkerMaxPages = 500
	defaultStalkerTimezone = "Europe/Kiev"
	defaultStorePath       = "tvlink.db"
)

// Config holds all configuration for the application.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Store   StoreConfig   `mapstructure:"store"`
	Player  PlayerConfig  `mapstructure:"player"`
	Stalker StalkerConfig `mapstructure:"stalker"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// HTTPConfig holds outbound HTTP client configuration.
type HTTPConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	UserAgent     string        `mapstructure:"user_agent"`
}

// StoreConfig holds the saved-profile store configuration.
type StoreConfig struct {
	// Path is the sqlite database file holding saved connection profiles.
	Path string `mapstructure:"path"`
}

// PlayerConfig holds playback reconnection configuration.
type PlayerConfig struct {
	// MaxRetries is the number of automatic reconnection attempts before
	// playback is reported as failed.
	MaxRetries int `mapstructure:"max_retries"`

	// RetryDelay is the pause before each reconnection attempt.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// StalkerConfig holds Stalker portal protocol configuration.
type StalkerConfig struct {
	// MaxPages bounds the paginated channel fetch against misbehaving
	// portals that never return an empty page.
	MaxPages int `mapstructure:"max_pages"`

	// Timezone is sent in the handshake cookie.
	Timezone string `mapstructure:"timezone"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with TVLINK_ and use underscores for
// nesting. Example: TVLINK_LOGGING_LEVEL=debug.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/tvlink")
		v.AddConfigPath("$HOME/.tvlink")
	}

	v.SetEnvPrefix("TVLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file so defaults are in place.
func SetDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// HTTP defaults
	v.SetDefault("http.timeout", defaultHTTPTimeout)
	v.SetDefault("http.retry_attempts", defaultRetryAttempts)
	v.SetDefault("http.retry_delay", defaultRetryDelay)
	v.SetDefault("http.user_agent", "")

	// Store defaults
	v.SetDefault("store.path", defaultStorePath)

	// Player defaults
	v.SetDefault("player.max_retries", defaultPlayerRetries)
	v.SetDefault("player.retry_delay", defaultPlayerDelay)

	// Stalker defaults
	v.SetDefault("stalker.max_pages", defaultStalkerMaxPages)
	v.SetDefault("stalker.timezone", defaultStalkerTimezone)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if c.HTTP.RetryAttempts < 0 {
		return fmt.Errorf("http.retry_attempts must not be negative")
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	if c.Player.MaxRetries < 0 {
		return fmt.Errorf("player.max_retries must not be negative")
	}
	if c.Player.RetryDelay <= 0 {
		return fmt.Errorf("player.retry_delay must be positive")
	}

	if c.Stalker.MaxPages < 1 {
		return fmt.Errorf("stalker.max_pages must be at least 1")
	}

	return nil
}
