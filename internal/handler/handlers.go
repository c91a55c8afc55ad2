package handler

import (
	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/handler/http"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
}

func NewHandlers(services *service.Services, cfg config.Server, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if cfg.HTTPAddress == "" {
		return nil, errNoHandlersAreCreated
	}

	return &Handlers{HTTP: http.NewHandler(services, logger)}, nil
}
