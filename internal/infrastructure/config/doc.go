// Package config provides environment-based configuration for the
// coordinator using envconfig struct tags with sensible defaults.
//
// Every knob can be overridden through environment variables (PORT,
// LOG_LEVEL, WORKER_MAX_CONCURRENT, MEMORY_SWEEP_INTERVAL, ...); Default()
// returns a fully-populated configuration for tests and fallback paths.
package config
