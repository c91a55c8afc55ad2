package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	App struct {
		TokenSignKey  string   `json:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer"`
		TokenDuration Duration `json:"token_duration"`
		Version       string   `json:"version"`
		DeviceID      string   `json:"device_id"`
		Token         string   `json:"token"`
		LogFile       string   `json:"log_file"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		Local struct {
			DSN string `json:"dsn"`
		} `json:"local,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
		PullLimit      int      `json:"pull_limit"`
	} `json:"server,omitempty"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Workers struct {
		SyncInterval  Duration `json:"sync_interval"`
		PruneInterval Duration `json:"prune_interval"`
	} `json:"workers,omitempty"`

	Sync struct {
		BatchSize          int      `json:"batch_size"`
		BaseDelay          Duration `json:"base_delay"`
		Multiplier         float64  `json:"multiplier"`
		MaxDelay           Duration `json:"max_delay"`
		JitterPercent      uint64   `json:"jitter_percent"`
		MaxRetries         uint64   `json:"max_retries"`
		NotSyncedThreshold int      `json:"not_synced_threshold"`
		RetentionWindow    Duration `json:"retention_window"`
	} `json:"sync,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error opening config file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			TokenSignKey:  jsonCfg.App.TokenSignKey,
			TokenIssuer:   jsonCfg.App.TokenIssuer,
			TokenDuration: time.Duration(jsonCfg.App.TokenDuration),
			Version:       jsonCfg.App.Version,
			DeviceID:      jsonCfg.App.DeviceID,
			Token:         jsonCfg.App.Token,
			LogFile:       jsonCfg.App.LogFile,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Local: Local{
				DSN: jsonCfg.Storage.Local.DSN,
			},
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
			PullLimit:      jsonCfg.Server.PullLimit,
		},
		Adapter: Adapter{
			HTTPAddress:    jsonCfg.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		Workers: Workers{
			SyncInterval:  time.Duration(jsonCfg.Workers.SyncInterval),
			PruneInterval: time.Duration(jsonCfg.Workers.PruneInterval),
		},
		Sync: Sync{
			BatchSize:          jsonCfg.Sync.BatchSize,
			BaseDelay:          time.Duration(jsonCfg.Sync.BaseDelay),
			Multiplier:         jsonCfg.Sync.Multiplier,
			MaxDelay:           time.Duration(jsonCfg.Sync.MaxDelay),
			JitterPercent:      jsonCfg.Sync.JitterPercent,
			MaxRetries:         jsonCfg.Sync.MaxRetries,
			NotSyncedThreshold: jsonCfg.Sync.NotSyncedThreshold,
			RetentionWindow:    time.Duration(jsonCfg.Sync.RetentionWindow),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration accepts either a Go duration string ("90s") or a number of
// nanoseconds in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
