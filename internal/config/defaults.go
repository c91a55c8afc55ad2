package config

import "time"

const (
	DefaultServerAddress  = "localhost:8080"
	DefaultServerURL      = "http://localhost:8080"
	DefaultLocalDSN       = "sqlite://moodsync.db"
	DefaultTokenIssuer    = "moodsync"
	DefaultPullLimit      = 500
	DefaultBatchSize      = 50
	DefaultRetention      = 7 * 24 * time.Hour
	DefaultNotSyncedAfter = 3
)

func serverDefaults() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			TokenIssuer:   DefaultTokenIssuer,
			TokenDuration: 30 * 24 * time.Hour,
		},
		Server: Server{
			HTTPAddress:    DefaultServerAddress,
			RequestTimeout: 30 * time.Second,
			PullLimit:      DefaultPullLimit,
		},
	}
}

func clientDefaults() *StructuredConfig {
	return &StructuredConfig{
		Storage: Storage{
			Local: Local{DSN: DefaultLocalDSN},
		},
		Adapter: Adapter{
			HTTPAddress:    DefaultServerURL,
			RequestTimeout: 15 * time.Second,
		},
		Workers: Workers{
			SyncInterval:  time.Minute,
			PruneInterval: time.Hour,
		},
		Sync: Sync{
			BatchSize:          DefaultBatchSize,
			BaseDelay:          time.Second,
			Multiplier:         2,
			MaxDelay:           5 * time.Minute,
			JitterPercent:      20,
			NotSyncedThreshold: DefaultNotSyncedAfter,
			RetentionWindow:    DefaultRetention,
		},
	}
}
