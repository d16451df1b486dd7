// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort                = 8080
	defaultServerHost                = "0.0.0.0"
	defaultReadTimeout               = 30 * time.Second
	defaultWriteTimeout              = 30 * time.Second
	defaultDatabasePath              = "./data/aircheck.db"
	defaultDatabaseConnectionTimeout = 5 * time.Second
	defaultLogLevel                  = "info"
	defaultLogPretty                 = false
	defaultArchiveExtension          = "mp3"
	defaultWindowDays                = 14
	defaultElevatedWindowDays        = 90
	defaultSignedURLTTL              = 1 * time.Hour
	defaultSharePath                 = "/player"
	defaultSessionCleanupInterval    = 60 * time.Second
	defaultSessionGracePeriod        = 30 * time.Minute
	defaultRateLimitPerMinute        = 120
	defaultRateLimitBurst            = 20
	envPrefix                        = "AIRCHECK"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Archive  ArchiveConfig
	Storage  StorageConfig
	Sessions SessionsConfig
	Auth     AuthConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port               int
	Host               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path              string
	ConnectionTimeout time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// ArchiveConfig holds archive browsing configuration.
// WindowDays bounds how far back default-tier listeners may browse;
// ElevatedWindowDays applies to DJ-and-above tiers. SharePath is the
// player page path (or full public base URL) share links point at.
type ArchiveConfig struct {
	Extension          string
	WindowDays         int
	ElevatedWindowDays int
	SignedURLTTL       time.Duration
	SharePath          string
}

// StorageConfig holds object store configuration for recorded broadcasts
type StorageConfig struct {
	Bucket   string
	Region   string
	Endpoint string
}

// SessionsConfig holds playback session registry configuration
type SessionsConfig struct {
	CleanupInterval time.Duration
	GracePeriod     time.Duration
}

// AuthConfig maps pre-shared bearer tokens to role names. Tokens are
// normally injected by the SSO proxy fronting this service.
type AuthConfig struct {
	Tokens map[string]string
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/aircheck")

	// Environment variable settings
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)
	v.SetDefault("server.ratelimitperminute", defaultRateLimitPerMinute)
	v.SetDefault("server.ratelimitburst", defaultRateLimitBurst)

	// Database defaults
	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.connectiontimeout", defaultDatabaseConnectionTimeout)

	// Logging defaults
	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	// Archive defaults
	v.SetDefault("archive.extension", defaultArchiveExtension)
	v.SetDefault("archive.windowdays", defaultWindowDays)
	v.SetDefault("archive.elevatedwindowdays", defaultElevatedWindowDays)
	v.SetDefault("archive.signedurlttl", defaultSignedURLTTL)
	v.SetDefault("archive.sharepath", defaultSharePath)

	// Storage defaults (bucket intentionally has no default; it must be set)
	v.SetDefault("storage.region", "us-east-1")

	// Session registry defaults
	v.SetDefault("sessions.cleanupinterval", defaultSessionCleanupInterval)
	v.SetDefault("sessions.graceperiod", defaultSessionGracePeriod)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}
	if c.Database.ConnectionTimeout <= 0 {
		return fmt.Errorf("invalid database connection timeout: %v (must be > 0)", c.Database.ConnectionTimeout)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	if c.Archive.WindowDays <= 0 {
		return fmt.Errorf("invalid archive window days: %d (must be > 0)", c.Archive.WindowDays)
	}
	if c.Archive.ElevatedWindowDays < c.Archive.WindowDays {
		return fmt.Errorf("invalid elevated window days: %d (must be >= window days %d)",
			c.Archive.ElevatedWindowDays, c.Archive.WindowDays)
	}
	if c.Archive.SignedURLTTL <= 0 {
		return fmt.Errorf("invalid signed URL TTL: %v (must be > 0)", c.Archive.SignedURLTTL)
	}
	if c.Archive.Extension == "" {
		return errors.New("archive extension must not be empty")
	}
	if c.Archive.SharePath == "" {
		return errors.New("archive share path must not be empty")
	}

	if c.Sessions.CleanupInterval <= 0 {
		return fmt.Errorf("invalid session cleanup interval: %v (must be > 0)", c.Sessions.CleanupInterval)
	}
	if c.Sessions.GracePeriod <= 0 {
		return fmt.Errorf("invalid session grace period: %v (must be > 0)", c.Sessions.GracePeriod)
	}

	// Storage bucket is validated when the signer is constructed so that
	// resolver-less deployments (tests, dry runs) can still load config.

	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
