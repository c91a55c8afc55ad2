package store

import (
	"context"
	"fmt"

	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
)

// OpenLocalStorage opens the device local store selected by the DSN scheme:
// "sqlite://path" (the default for a bare path) or "bolt://path". The schema
// is migrated on open.
func OpenLocalStorage(ctx context.Context, cfg config.ClientStorage, log *logger.Logger) (LocalStorage, error) {
	backend, path, err := config.ParseLocalDSN(cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedBackend, err)
	}

	log.Info().Str("func", "OpenLocalStorage").Str("backend", backend).Str("path", path).Msg("opening local storage")

	var s LocalStorage
	switch backend {
	case config.BackendSQLite:
		s, err = NewSQLiteLocalStorage(ctx, path, log)
	case config.BackendBolt:
		s, err = NewBoltLocalStorage(ctx, path, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
