package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/innerhue/moodsync/internal/app"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/utils"
	"github.com/innerhue/moodsync/models"
)

const (
	eventsBuffer       = 16
	eventWriteTimeout  = 5 * time.Second
	eventsPingInterval = 30 * time.Second
)

func (h *Handler) push(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		log.Error().Err(ErrNoUserID).Send()
		utils.WriteError(w, app.MsgNoUserIDProvided, http.StatusUnauthorized)
		return
	}

	var req models.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("failed to decode push request")
		utils.WriteError(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
		return
	}

	result, err := h.services.RemoteSyncService.Push(ctx, userID, req)
	if err != nil {
		status := statusFromError(err)
		log.Error().Err(err).Int("status", status).Msg("push failed")
		utils.WriteError(w, messageFromError(err, app.MsgPushFailed), status)
		return
	}

	log.Debug().
		Str("device_id", req.DeviceID).
		Int("accepted", len(result.Accepted)).
		Int("conflicts", len(result.Conflicts)).
		Msg("push served")

	if _, err = utils.WriteJSON(w, result, http.StatusOK); err != nil {
		log.Error().Err(err).Msg("failed to write push response")
	}
}

func (h *Handler) pull(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	ctx := r.Context()

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		log.Error().Err(ErrNoUserID).Send()
		utils.WriteError(w, app.MsgNoUserIDProvided, http.StatusUnauthorized)
		return
	}

	since, err := utils.QueryInt64(r, "since", 0)
	if err != nil {
		log.Error().Err(err).Msg("invalid since")
		utils.WriteError(w, app.MsgInvalidQuery, http.StatusBadRequest)
		return
	}
	limit, err := utils.QueryInt64(r, "limit", 0)
	if err != nil {
		log.Error().Err(err).Msg("invalid limit")
		utils.WriteError(w, app.MsgInvalidQuery, http.StatusBadRequest)
		return
	}

	result, err := h.services.RemoteSyncService.Pull(ctx, userID, since, int(limit))
	if err != nil {
		status := statusFromError(err)
		log.Error().Err(err).Int("status", status).Msg("pull failed")
		utils.WriteError(w, messageFromError(err, app.MsgPullFailed), status)
		return
	}

	if _, err = utils.WriteJSON(w, result, http.StatusOK); err != nil {
		log.Error().Err(err).Msg("failed to write pull response")
	}
}

// events upgrades the request to a websocket and streams the account's
// change notifications until the device disconnects or the server stops.
// The device never sends anything on the feed.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		log.Error().Err(ErrNoUserID).Send()
		utils.WriteError(w, app.MsgNoUserIDProvided, http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	events, cancel := h.services.RemoteSyncService.Subscribe(userID, eventsBuffer)
	defer cancel()

	ctx := conn.CloseRead(r.Context())
	log.Debug().Msg("change feed subscriber connected")

	ping := time.NewTicker(eventsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("change feed subscriber disconnected")
			return
		case <-ping.C:
			if err = pingConn(ctx, conn); err != nil {
				log.Debug().Err(err).Msg("change feed ping failed")
				return
			}
		case event, open := <-events:
			if !open {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err = writeEvent(ctx, conn, event); err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("failed to write change event")
				}
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, event models.RemoteEvent) error {
	ctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, event)
}

func pingConn(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
	defer cancel()
	return conn.Ping(ctx)
}
