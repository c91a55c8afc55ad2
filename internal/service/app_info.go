package service

import (
	"context"

	"github.com/innerhue/moodsync/internal/config"
)

const unknownVersion = "N/A"

type appInfoService struct {
	appVersion string
}

func NewAppInfoService(cfg config.App) AppInfoService {
	version := cfg.Version
	if version == "" {
		version = unknownVersion
	}
	return &appInfoService{appVersion: version}
}

func (s *appInfoService) GetAppVersion(_ context.Context) string {
	return s.appVersion
}
