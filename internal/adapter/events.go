package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/models"
)

type changeWatcher struct {
	url    string
	tokens interface{ Token() string }
	logger *logger.Logger
}

// NewChangeWatcher returns a [ChangeFeed] reading the server's websocket
// change feed. The bearer token is read from tokens on every connect so a
// refreshed token is picked up after a reconnect.
func NewChangeWatcher(httpAddress string, tokens interface{ Token() string }, logger *logger.Logger) (ChangeFeed, error) {
	baseURL, err := normalizeBaseURL(httpAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	return &changeWatcher{url: baseURL + pathEvents, tokens: tokens, logger: logger}, nil
}

func (w *changeWatcher) Watch(ctx context.Context, onConnect func(), onEvent func(models.RemoteEvent)) error {
	header := http.Header{}
	if token := w.tokens.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.Dial(ctx, w.url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return fmt.Errorf("%w: change feed", ErrUnauthorized)
			case http.StatusForbidden:
				return fmt.Errorf("%w: change feed", ErrForbidden)
			}
		}
		return mapTransportError(ctx, "change feed dial", err)
	}
	defer conn.CloseNow()

	w.logger.Debug().Str("func", "changeWatcher.Watch").Str("url", w.url).Msg("change feed connected")
	if onConnect != nil {
		onConnect()
	}

	for {
		var event models.RemoteEvent
		if err = wsjson.Read(ctx, conn, &event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			return &TransientNetworkError{Err: fmt.Errorf("change feed read: %w", err)}
		}

		if onEvent != nil {
			onEvent(event)
		}
	}
}
