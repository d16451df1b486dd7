package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:              "./data/aircheck.db",
			ConnectionTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
		Archive: ArchiveConfig{
			Extension:          "mp3",
			WindowDays:         14,
			ElevatedWindowDays: 90,
			SignedURLTTL:       time.Hour,
			SharePath:          "/player",
		},
		Sessions: SessionsConfig{
			CleanupInterval: time.Minute,
			GracePeriod:     30 * time.Minute,
		},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mp3", cfg.Archive.Extension)
	assert.Equal(t, 14, cfg.Archive.WindowDays)
	assert.Equal(t, 90, cfg.Archive.ElevatedWindowDays)
	assert.Equal(t, time.Hour, cfg.Archive.SignedURLTTL)
	assert.Equal(t, "/player", cfg.Archive.SharePath)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.GracePeriod)
	assert.Equal(t, "us-east-1", cfg.Storage.Region)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("AIRCHECK_SERVER_PORT", "9090")
	t.Setenv("AIRCHECK_ARCHIVE_WINDOWDAYS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Archive.WindowDays)
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidate_InvalidWindowDays(t *testing.T) {
	cfg := validConfig()
	cfg.Archive.WindowDays = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_ElevatedWindowShorterThanDefault(t *testing.T) {
	cfg := validConfig()
	cfg.Archive.ElevatedWindowDays = 7
	assert.Error(t, cfg.Validate())
}

func TestValidate_EmptyExtension(t *testing.T) {
	cfg := validConfig()
	cfg.Archive.Extension = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_EmptySharePath(t *testing.T) {
	cfg := validConfig()
	cfg.Archive.SharePath = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_InvalidSessionSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Sessions.CleanupInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Sessions.GracePeriod = -time.Minute
	assert.Error(t, cfg.Validate())
}
