// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Store backend names accepted by Config.Store.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory change-notification queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`

	// CoalesceSize pre-sizes the pending-recompute set.
	CoalesceSize int `koanf:"coalesce_size"`

	// MaxLeaderboardLimit caps leaderboard/standings limit query params.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// DefaultPar is the course par assumed when a round carries none.
	DefaultPar int `koanf:"default_par"`

	// Store selects the storage backend: "memory" or "postgres".
	Store string `koanf:"store"`

	// DatabaseURL is the Postgres DSN, required when Store is "postgres".
	DatabaseURL string `koanf:"database_url"`

	// JWTSecret signs/validates actor tokens minted by the auth collaborator.
	JWTSecret string `koanf:"jwt_secret"`

	// Debug enables verbose query logging on the Postgres store.
	Debug bool `koanf:"debug"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU() * 2,
		CoalesceSize:        1024,
		MaxLeaderboardLimit: 100,
		DefaultPar:          72,
		Store:               StoreMemory,
	}
}
