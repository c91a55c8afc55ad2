package service

import (
	"context"
	"fmt"

	"github.com/innerhue/moodsync/internal/adapter"
	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/store"
)

// ClientServices groups the device-side services sharing one local store.
type ClientServices struct {
	Journal  Journal
	EntryLog EntryLog
	Engine   SyncEngine
}

func NewClientServices(ctx context.Context, localStore store.LocalStorage, remote adapter.RemoteStore, deviceID string, cfg config.Sync, logger *logger.Logger) (*ClientServices, error) {
	journal, err := NewJournal(ctx, localStore, deviceID, cfg.RetentionWindow, logger)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	entryLog := NewEntryLog(localStore, journal, logger)

	return &ClientServices{
		Journal:  journal,
		EntryLog: entryLog,
		Engine:   NewSyncEngine(localStore, journal, remote, entryLog, cfg, logger),
	}, nil
}
