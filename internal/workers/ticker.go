package workers

import (
	"context"
	"time"

	"github.com/innerhue/moodsync/internal/logger"
	"github.com/innerhue/moodsync/internal/service"
)

// TickerWorker triggers a sync cycle every interval.
type TickerWorker struct {
	interval time.Duration
	trigger  Trigger
	logger   *logger.Logger
}

func NewTickerWorker(interval time.Duration, trigger Trigger, logger *logger.Logger) *TickerWorker {
	return &TickerWorker{interval: interval, trigger: trigger, logger: logger}
}

func (w *TickerWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		w.logger.Info().Msg("periodic sync disabled")
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.trigger.Trigger(service.TriggerTimer)
		}
	}
}
