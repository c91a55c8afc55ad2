package service

import (
	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/store"
)

// Services groups the server-side services.
type Services struct {
	RemoteSyncService RemoteSyncService
	TokenService      TokenService
	AppInfoService    AppInfoService
}

func NewServices(storages *store.Storages, cfg *config.StructuredConfig, logger *logger.Logger) *Services {
	return &Services{
		RemoteSyncService: NewRemoteSyncService(storages.OperationRepository, cfg.Server.PullLimit, logger),
		TokenService:      NewTokenService(cfg.App, logger),
		AppInfoService:    NewAppInfoService(cfg.App),
	}
}
