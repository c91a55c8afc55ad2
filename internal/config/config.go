// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container shared by the
// moodsync server and the device client. It aggregates all sub-configurations
// and is populated by merging values from environment variables, command-line
// flags, an optional JSON file and the built-in defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings: token parameters, device
	// identity and the application version.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the remote database and the device
	// local store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds network address and paging settings for the HTTP server.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds the client's view of the remote server.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds the intervals of client background workers.
	Workers Workers `envPrefix:"WORKERS_"`

	// Sync holds the tuning knobs of the sync engine.
	Sync Sync `envPrefix:"SYNC_"`

	// JSONFilePath names an optional JSON file (CONFIG, -c or --config).
	JSONFilePath string `env:"CONFIG"`
}

// Storage groups the configuration for all storage backends.
type Storage struct {
	// DB holds the remote relational database connection settings.
	DB DB `envPrefix:"DB_"`

	// Local holds the device local store settings.
	Local Local `envPrefix:"LOCAL_"`
}

// App holds application-level configuration values.
type App struct {
	// TokenSignKey is the HMAC key for bearer tokens. The server refuses to
	// start without it.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer must match the "iss" claim of presented tokens.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration specifies how long an issued token remains valid.
	// Env: APP_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`

	// Version is the semantic version string of the running application.
	// Env: APP_VERSION
	Version string `env:"VERSION"`

	// DeviceID overrides the device identifier persisted in the local store.
	// Env: APP_DEVICE_ID
	DeviceID string `env:"DEVICE_ID"`

	// Token is the bearer token the client presents to the server.
	// Env: APP_TOKEN
	Token string `env:"TOKEN"`

	// LogFile is the client log file path.
	// Env: APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`
}

// Server configures the sync API listener.
type Server struct {
	// HTTPAddress is the listen address, host:port.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds reading request headers.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// PullLimit caps the number of operations returned by one pull.
	// Env: SERVER_PULL_LIMIT
	PullLimit int `env:"PULL_LIMIT"`
}

// DB holds connection settings for the remote relational database.
type DB struct {
	// DSN is the PostgreSQL Data Source Name. An empty DSN makes the server
	// keep operations in memory.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Local holds the device local store settings.
type Local struct {
	// DSN selects the backend by scheme: "sqlite://path" or "bolt://path".
	// A bare path is treated as SQLite.
	// Env: STORAGE_LOCAL_DSN
	DSN string `env:"DSN"`
}

// Adapter holds the client's outbound transport settings.
type Adapter struct {
	// HTTPAddress is the base URL of the moodsync server
	// (e.g. "http://localhost:8080").
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single push or pull request.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Workers holds configuration for client background workers.
type Workers struct {
	// SyncInterval is the period of the timer trigger.
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// PruneInterval is the period of the journal retention sweep.
	PruneInterval time.Duration `env:"PRUNE_INTERVAL"`
}

// Sync holds the sync engine tuning knobs.
type Sync struct {
	// BatchSize is the number of operations sent per push and requested
	// per pull.
	BatchSize int `env:"BATCH_SIZE"`

	// BaseDelay is the first retry delay after a transient failure.
	BaseDelay time.Duration `env:"BASE_DELAY"`

	// Multiplier grows the delay on each consecutive failure.
	Multiplier float64 `env:"MULTIPLIER"`

	// MaxDelay caps a single retry delay.
	MaxDelay time.Duration `env:"MAX_DELAY"`

	// JitterPercent randomizes each delay by up to the given percentage.
	JitterPercent uint64 `env:"JITTER_PERCENT"`

	// MaxRetries bounds the retries of one batch; zero retries forever.
	MaxRetries uint64 `env:"MAX_RETRIES"`

	// NotSyncedThreshold is the number of consecutive transient failures
	// after which the status reports the device as not synced.
	NotSyncedThreshold int `env:"NOT_SYNCED_THRESHOLD"`

	// RetentionWindow is how long acknowledged operations stay queryable.
	RetentionWindow time.Duration `env:"RETENTION_WINDOW"`
}

// GetStructuredConfig loads, merges, and validates the server configuration
// from all available sources. For every field the first non-zero value wins
// in the following order:
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
func GetStructuredConfig() (*StructuredConfig, error) {
	cfg, err := newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults(serverDefaults()).
		build()
	if err != nil {
		return nil, err
	}

	return cfg, cfg.validate()
}

// GetTokenConfig loads only the token settings from the environment and the
// defaults. It is used by tools that share the server's signing key but not
// its command line.
func GetTokenConfig() (*App, error) {
	cfg, err := newConfigBuilder().
		withEnv().
		withDefaults(serverDefaults()).
		build()
	if err != nil {
		return nil, err
	}

	if cfg.App.TokenSignKey == "" {
		return nil, ErrInvalidAppConfigs
	}

	return &cfg.App, nil
}
