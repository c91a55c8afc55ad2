package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/innerhue/moodsync/internal/config"
	"github.com/innerhue/moodsync/internal/logger"
)

const (
	defaultReadHeaderTimeout = 10 * time.Second
	idleTimeout              = 2 * time.Minute
	shutdownTimeout          = 15 * time.Second
)

type httpServer struct {
	server *http.Server
	logger *logger.Logger

	// cancelBase ends the context of every request in flight, including
	// hijacked change feed connections that Shutdown does not track.
	cancelBase context.CancelFunc
}

// newHTTPServer builds the API server. No WriteTimeout is set because the
// change feed holds its connection open for as long as the device listens.
func newHTTPServer(router http.Handler, cfg config.Server, logger *logger.Logger) *httpServer {
	readHeaderTimeout := cfg.RequestTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = defaultReadHeaderTimeout
	}

	baseCtx, cancel := context.WithCancel(context.Background())

	return &httpServer{
		server: &http.Server{
			Addr:              cfg.HTTPAddress,
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       idleTimeout,
			BaseContext: func(net.Listener) context.Context {
				return baseCtx
			},
		},
		logger:     logger,
		cancelBase: cancel,
	}
}

func (h *httpServer) RunServer() {
	if err := h.serve(); err != nil {
		h.logger.Error().Err(err).Msg("HTTP server ListenAndServe")
	}
}

func (h *httpServer) serve() error {
	h.logger.Info().Str("address", h.server.Addr).Msg("HTTP server listening")
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *httpServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	h.cancelBase()
	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error().Err(err).Msg("HTTP server Shutdown")
	}
}
