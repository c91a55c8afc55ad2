package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/innerhue/moodsync/internal/adapter"
	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/service"
	"github.com/innerhue/moodsync/internal/store"
	"github.com/innerhue/moodsync/internal/workers"
)

// App is one device: its local store, its services and the transport to the
// server.
type App struct {
	cfg *config.ClientConfig

	deviceID string
	store    store.LocalStorage
	remote   adapter.RemoteStore
	feed     adapter.ChangeFeed
	services *service.ClientServices

	logger *logger.Logger
}

// NewApp opens the local store selected by cfg and wires the device
// services. The device id is generated on first start and persisted in the
// store.
func NewApp(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	localStore, err := store.OpenLocalStorage(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}

	app, err := newApp(ctx, cfg, localStore, log)
	if err != nil {
		return nil, errors.Join(err, localStore.Close())
	}

	return app, nil
}

func newApp(ctx context.Context, cfg *config.ClientConfig, localStore store.LocalStorage, log *logger.Logger) (*App, error) {
	deviceID, err := store.LoadOrCreateDeviceID(ctx, localStore, cfg.App.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("load device id: %w", err)
	}
	log = log.WithDevice(deviceID)

	remote, err := adapter.NewHTTPRemoteStore(cfg.Adapter, cfg.App, log)
	if err != nil {
		return nil, fmt.Errorf("create remote store: %w", err)
	}

	feed, err := adapter.NewChangeWatcher(cfg.Adapter.HTTPAddress, remote, log)
	if err != nil {
		return nil, fmt.Errorf("create change watcher: %w", err)
	}

	services, err := service.NewClientServices(ctx, localStore, remote, deviceID, cfg.Sync, log)
	if err != nil {
		return nil, fmt.Errorf("create client services: %w", err)
	}

	return &App{
		cfg:      cfg,
		deviceID: deviceID,
		store:    localStore,
		remote:   remote,
		feed:     feed,
		services: services,
		logger:   log,
	}, nil
}

func (a *App) DeviceID() string { return a.deviceID }

func (a *App) Services() *service.ClientServices { return a.services }

func (a *App) Logger() *logger.Logger { return a.logger }

// Store exposes the local store for snapshot export and backend migration.
func (a *App) Store() store.LocalStorage { return a.store }

// Run serves the sync engine together with the periodic trigger, the change
// feed watcher and the retention sweep until ctx is done. A startup cycle
// is requested first so that operations journaled while the daemon was down
// are pushed right away.
func (a *App) Run(ctx context.Context) error {
	engine := a.services.Engine

	jobs := workers.NewWorkers(
		engine,
		workers.NewTickerWorker(a.cfg.Workers.SyncInterval, engine, a.logger),
		workers.NewChangeFeedWorker(a.feed, engine, a.logger),
		workers.NewPruneWorker(a.cfg.Workers.PruneInterval, a.services.Journal, a.logger),
	)

	engine.Trigger(service.TriggerStartup)

	a.logger.Info().Str("server", a.cfg.Adapter.HTTPAddress).Msg("sync daemon started")
	err := jobs.Run(ctx)
	a.logger.Info().Err(err).Msg("sync daemon stopped")

	return err
}

func (a *App) Close() error {
	return a.store.Close()
}

var _ Client = (*App)(nil)
