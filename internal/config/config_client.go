package config

import (
	"fmt"
	"time"
)

// ClientApp is the identity and logging part of the device config.
type ClientApp struct {
	// DeviceID overrides the persisted device identifier when set.
	DeviceID string
	// Token is the bearer token sent to the server.
	Token string
	// LogFile is the rotated log file path.
	LogFile string
	// Version is reported by the version command.
	Version string
}

// ClientAdapter points the device at its server.
type ClientAdapter struct {
	// HTTPAddress is the server base URL.
	HTTPAddress string
	// RequestTimeout bounds one push or pull round trip.
	RequestTimeout time.Duration
}

type ClientDB struct {
	// DSN is the "sqlite://" or "bolt://" location of the local store.
	DSN string
}

type ClientStorage struct {
	DB ClientDB
}

// ClientWorkers sets the periods of the daemon's timers.
type ClientWorkers struct {
	// SyncInterval defines how often the periodic sync trigger fires.
	SyncInterval time.Duration
	// PruneInterval defines how often acknowledged operations are pruned.
	PruneInterval time.Duration
}

// ClientConfig is the device-side projection of [StructuredConfig].
type ClientConfig struct {
	App     ClientApp
	Adapter ClientAdapter
	Storage ClientStorage
	Workers ClientWorkers
	Sync    Sync
}

// GetClientConfig builds and validates the client configuration.
//
// overrides usually come from CLI flags and take precedence over the
// environment, which in turn beats the JSON file and the defaults.
func GetClientConfig(overrides *StructuredConfig) (*ClientConfig, error) {
	cfg, err := newConfigBuilder().
		withConfig(overrides).
		withEnv().
		withJSON().
		withDefaults(clientDefaults()).
		build()
	if err != nil {
		return nil, fmt.Errorf("error building client config: %w", err)
	}

	clientCfg := newClientConfig(cfg)

	return clientCfg, clientCfg.validate()
}

func newClientConfig(cfg *StructuredConfig) *ClientConfig {
	return &ClientConfig{
		App: ClientApp{
			DeviceID: cfg.App.DeviceID,
			Token:    cfg.App.Token,
			LogFile:  cfg.App.LogFile,
			Version:  cfg.App.Version,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			DB: ClientDB{
				DSN: cfg.Storage.Local.DSN,
			},
		},
		Workers: ClientWorkers{
			SyncInterval:  cfg.Workers.SyncInterval,
			PruneInterval: cfg.Workers.PruneInterval,
		},
		Sync: cfg.Sync,
	}
}
