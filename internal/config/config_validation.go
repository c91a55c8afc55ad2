// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"
)

// validate checks that the final merged server configuration satisfies all
// startup invariants.
func (cfg *StructuredConfig) validate() error {
	if cfg.App.TokenSignKey == "" || cfg.App.TokenIssuer == "" {
		return ErrInvalidAppConfigs
	}

	if cfg.Server.HTTPAddress == "" || cfg.Server.RequestTimeout <= 0 || cfg.Server.PullLimit <= 0 {
		return ErrInvalidServerConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if _, _, err := ParseLocalDSN(cfg.Storage.DB.DSN); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStorageConfigs, err)
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval <= 0 || cfg.Workers.PruneInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	s := cfg.Sync
	if s.BatchSize <= 0 || s.BaseDelay <= 0 || s.Multiplier < 1 ||
		s.MaxDelay < s.BaseDelay || s.JitterPercent > 100 ||
		s.NotSyncedThreshold <= 0 || s.RetentionWindow <= 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}

// Local store backends.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// ParseLocalDSN splits a local store DSN into its backend and file path.
// A DSN without a scheme is treated as a SQLite path.
func ParseLocalDSN(dsn string) (backend, path string, err error) {
	if dsn == "" {
		return "", "", ErrEmptyLocalDSN
	}

	scheme, rest, found := strings.Cut(dsn, "://")
	if !found {
		return BackendSQLite, dsn, nil
	}

	switch scheme {
	case BackendSQLite, BackendBolt:
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownLocalBackend, scheme)
	}

	if rest == "" {
		return "", "", ErrEmptyLocalDSN
	}

	return scheme, rest, nil
}
