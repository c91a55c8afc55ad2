package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validClientConfig() *ClientConfig {
	return newClientConfig(clientDefaults())
}

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *ClientConfig)
		wantErr error
	}{
		{name: "defaults are valid", mutate: func(*ClientConfig) {}},
		{
			name:    "unknown backend",
			mutate:  func(cfg *ClientConfig) { cfg.Storage.DB.DSN = "redis://x" },
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name:    "empty dsn",
			mutate:  func(cfg *ClientConfig) { cfg.Storage.DB.DSN = "" },
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name:    "missing server url",
			mutate:  func(cfg *ClientConfig) { cfg.Adapter.HTTPAddress = "" },
			wantErr: ErrInvalidAdapterConfigs,
		},
		{
			name:    "zero sync interval",
			mutate:  func(cfg *ClientConfig) { cfg.Workers.SyncInterval = 0 },
			wantErr: ErrInvalidWorkerConfigs,
		},
		{
			name:    "multiplier below one",
			mutate:  func(cfg *ClientConfig) { cfg.Sync.Multiplier = 0.5 },
			wantErr: ErrInvalidSyncConfigs,
		},
		{
			name:    "max delay below base",
			mutate:  func(cfg *ClientConfig) { cfg.Sync.MaxDelay = time.Millisecond },
			wantErr: ErrInvalidSyncConfigs,
		},
		{
			name:    "jitter above hundred",
			mutate:  func(cfg *ClientConfig) { cfg.Sync.JitterPercent = 101 },
			wantErr: ErrInvalidSyncConfigs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validClientConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStructuredConfig_Validate(t *testing.T) {
	cfg := serverDefaults()
	assert.ErrorIs(t, cfg.validate(), ErrInvalidAppConfigs)

	cfg.App.TokenSignKey = "secret"
	assert.NoError(t, cfg.validate())

	cfg.Server.PullLimit = 0
	assert.ErrorIs(t, cfg.validate(), ErrInvalidServerConfigs)
}

func TestParseLocalDSN(t *testing.T) {
	tests := []struct {
		dsn         string
		wantBackend string
		wantPath    string
		wantErr     error
	}{
		{dsn: "sqlite://data/m.db", wantBackend: BackendSQLite, wantPath: "data/m.db"},
		{dsn: "bolt:///var/lib/m.bolt", wantBackend: BackendBolt, wantPath: "/var/lib/m.bolt"},
		{dsn: "plain.db", wantBackend: BackendSQLite, wantPath: "plain.db"},
		{dsn: "", wantErr: ErrEmptyLocalDSN},
		{dsn: "bolt://", wantErr: ErrEmptyLocalDSN},
		{dsn: "mysql://db", wantErr: ErrUnknownLocalBackend},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			backend, path, err := ParseLocalDSN(tt.dsn)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBackend, backend)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestGetClientConfig_OverridesBeatEnvAndDefaults(t *testing.T) {
	setEnvVars(t, map[string]string{
		"ADAPTER_ADDRESS": "http://env:8080",
		"SYNC_BATCH_SIZE": "5",
	})

	overrides := &StructuredConfig{
		Adapter: Adapter{HTTPAddress: "http://flag:8080"},
	}

	cfg, err := GetClientConfig(overrides)
	require.NoError(t, err)

	assert.Equal(t, "http://flag:8080", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 5, cfg.Sync.BatchSize)
	assert.Equal(t, DefaultLocalDSN, cfg.Storage.DB.DSN)
	assert.Equal(t, DefaultRetention, cfg.Sync.RetentionWindow)
}

func TestGetTokenConfig(t *testing.T) {
	setEnvVars(t, map[string]string{})
	_, err := GetTokenConfig()
	assert.ErrorIs(t, err, ErrInvalidAppConfigs)

	setEnvVars(t, map[string]string{"APP_TOKEN_SIGN_KEY": "k"})
	app, err := GetTokenConfig()
	require.NoError(t, err)
	assert.Equal(t, "k", app.TokenSignKey)
	assert.Equal(t, DefaultTokenIssuer, app.TokenIssuer)
}
