package http

import (
	"net/http"

	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/utils"
)

type healthResponse struct {
	Status string `json:"status"`
}

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	version := h.services.AppInfoService.GetAppVersion(r.Context())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(version)); err != nil {
		log.Error().Err(err).Msg("failed to write server version")
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if _, err := utils.WriteJSON(w, healthResponse{Status: "ok"}, http.StatusOK); err != nil {
		logger.FromRequest(r).Error().Err(err).Msg("failed to write health response")
	}
}
