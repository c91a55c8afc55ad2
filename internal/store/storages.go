package store

import (
	"context"
	"fmt"

	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
)

// Storages groups the server-side repositories.
type Storages struct {
	OperationRepository OperationRepository

	db *DB
}

// NewStorages connects the remote operation log. With an empty DSN the log
// lives in memory and is lost on restart.
func NewStorages(ctx context.Context, cfg config.DB, log *logger.Logger) (*Storages, error) {
	log.Info().Msg("creating new storages...")

	if cfg.DSN == "" {
		log.Warn().Str("func", "NewStorages").Msg("database DSN is empty, keeping operations in memory")
		return &Storages{OperationRepository: NewMemoryOperationRepository()}, nil
	}

	db, err := NewConnectPostgres(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err := db.MigrateServer(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		OperationRepository: NewPostgresOperationRepository(db),
		db:                  db,
	}, nil
}

// Close releases the database connection, if any.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
