// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/innerhue/moodsync/internal/adapter"
	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/service"
	"github.com/innerhue/moodsync/models"
)

const (
	defaultReconnectBase = time.Second
	defaultReconnectMax  = time.Minute
	reconnectJitter      = 20
)

// ChangeFeedWorker keeps the server change feed connected. Every (re)connect
// triggers a connectivity cycle, so operations journaled while offline are
// pushed as soon as the server is reachable again. Every event triggers a
// remote-change cycle.
type ChangeFeedWorker struct {
	feed    adapter.ChangeFeed
	trigger Trigger
	logger  *logger.Logger

	reconnectBase time.Duration
	reconnectMax  time.Duration
}

func NewChangeFeedWorker(feed adapter.ChangeFeed, trigger Trigger, logger *logger.Logger) *ChangeFeedWorker {
	return &ChangeFeedWorker{
		feed:          feed,
		trigger:       trigger,
		logger:        logger,
		reconnectBase: defaultReconnectBase,
		reconnectMax:  defaultReconnectMax,
	}
}

// Run returns when ctx is done or the server refuses the credentials.
func (w *ChangeFeedWorker) Run(ctx context.Context) error {
	backoff := w.newBackoff()

	for {
		connected := false
		err := w.feed.Watch(ctx,
			func() {
				connected = true
				w.trigger.Trigger(service.TriggerConnectivity)
			},
			func(event models.RemoteEvent) {
				w.logger.Debug().Str("type", event.Type).Int64("clock", event.Clock).Msg("remote change")
				w.trigger.Trigger(service.TriggerRemoteChange)
			},
		)

		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, adapter.ErrUnauthorized) || errors.Is(err, adapter.ErrForbidden) {
			w.logger.Error().Err(err).Msg("change feed refused credentials")
			return fmt.Errorf("change feed: %w", err)
		}

		if connected {
			backoff = w.newBackoff()
		}
		delay, _ := backoff.Next()
		w.logger.Warn().Err(err).Dur("retry_in", delay).Msg("change feed disconnected")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (w *ChangeFeedWorker) newBackoff() retry.Backoff {
	b := retry.NewExponential(w.reconnectBase)
	b = retry.WithJitterPercent(reconnectJitter, b)
	return retry.WithCappedDuration(w.reconnectMax, b)
}
