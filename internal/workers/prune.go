package workers

import (
	"context"
	"time"

	"github.com/innerhue/moodsync/internal/logger"
)

// PruneWorker sweeps the journal retention window every interval.
type PruneWorker struct {
	interval time.Duration
	pruner   Pruner
	logger   *logger.Logger
}

func NewPruneWorker(interval time.Duration, pruner Pruner, logger *logger.Logger) *PruneWorker {
	return &PruneWorker{interval: interval, pruner: pruner, logger: logger}
}

func (w *PruneWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := w.pruner.Prune(ctx)
			if err != nil {
				// a failed sweep is retried on the next tick
				w.logger.Error().Err(err).Msg("journal prune failed")
				continue
			}
			if removed > 0 {
				w.logger.Debug().Int("removed", removed).Msg("journal pruned")
			}
		}
	}
}
