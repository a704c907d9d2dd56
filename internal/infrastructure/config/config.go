package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all coordinator configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Workers   WorkerConfig
	Memory    MemoryConfig
	Settings  SettingsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8600"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	File        string `envconfig:"LOG_FILE" default:""`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// WorkerConfig holds worker admission configuration.
type WorkerConfig struct {
	MaxConcurrent int `envconfig:"WORKER_MAX_CONCURRENT" default:"2"`
	MaxHistory    int `envconfig:"WORKER_MAX_HISTORY" default:"100"`
}

// MemoryConfig holds memory manager configuration.
type MemoryConfig struct {
	SweepInterval    time.Duration `envconfig:"MEMORY_SWEEP_INTERVAL" default:"30s"`
	CacheIdleTimeout time.Duration `envconfig:"MEMORY_CACHE_IDLE_TIMEOUT" default:"300s"`
	MaxCacheMB       int           `envconfig:"MEMORY_MAX_CACHE_MB" default:"100"`
	WarnWorkers      int           `envconfig:"MEMORY_WARN_WORKERS" default:"3"`
}

// SettingsConfig locates the persisted user settings and category files.
type SettingsConfig struct {
	Path           string `envconfig:"SETTINGS_PATH" default:"settings.toml"`
	CategoriesPath string `envconfig:"CATEGORIES_PATH" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8600",
			Host: "127.0.0.1",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Workers: WorkerConfig{
			MaxConcurrent: 2,
			MaxHistory:    100,
		},
		Memory: MemoryConfig{
			SweepInterval:    30 * time.Second,
			CacheIdleTimeout: 300 * time.Second,
			MaxCacheMB:       100,
			WarnWorkers:      3,
		},
		Settings: SettingsConfig{
			Path: "settings.toml",
		},
	}
}
