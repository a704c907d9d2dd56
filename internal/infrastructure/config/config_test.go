package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8600", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	// Worker config
	assert.Equal(t, 2, cfg.Workers.MaxConcurrent)
	assert.Equal(t, 100, cfg.Workers.MaxHistory)

	// Memory config
	assert.Equal(t, 30*time.Second, cfg.Memory.SweepInterval)
	assert.Equal(t, 300*time.Second, cfg.Memory.CacheIdleTimeout)
	assert.Equal(t, 100, cfg.Memory.MaxCacheMB)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8600", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                      "9000",
		"HOST":                      "0.0.0.0",
		"LOG_LEVEL":                 "debug",
		"LOG_DEV":                   "true",
		"WORKER_MAX_CONCURRENT":     "4",
		"MEMORY_SWEEP_INTERVAL":     "10s",
		"MEMORY_CACHE_IDLE_TIMEOUT": "60s",
		"SETTINGS_PATH":             "/tmp/organizer.toml",
	}

	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 4, cfg.Workers.MaxConcurrent)
	assert.Equal(t, 10*time.Second, cfg.Memory.SweepInterval)
	assert.Equal(t, 60*time.Second, cfg.Memory.CacheIdleTimeout)
	assert.Equal(t, "/tmp/organizer.toml", cfg.Settings.Path)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	err := os.Setenv("PORT", "3000")
	require.NoError(t, err)
	defer os.Unsetenv("PORT")

	err = os.Setenv("LOG_LEVEL", "warn")
	require.NoError(t, err)
	defer os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 2, cfg.Workers.MaxConcurrent)
}
