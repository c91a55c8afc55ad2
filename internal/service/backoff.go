package service

import (
	"math"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/innerhue/moodsync/internal/config"
)

const (
	defaultBaseDelay  = 500 * time.Millisecond
	defaultMultiplier = 2.0
	defaultBatchSize  = 50
)

// newBackoff builds the retry schedule of one remote call:
// BaseDelay * Multiplier^attempt, randomized by JitterPercent and capped at
// MaxDelay. The schedule never stops unless MaxRetries is set.
func newBackoff(cfg config.Sync) retry.Backoff {
	base := cfg.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	multiplier := cfg.Multiplier
	if multiplier < 1 {
		multiplier = defaultMultiplier
	}
	ceiling := float64(math.MaxInt64 / 2)
	if cfg.MaxDelay > 0 {
		ceiling = float64(cfg.MaxDelay)
	}

	var attempt float64
	var b retry.Backoff = retry.BackoffFunc(func() (time.Duration, bool) {
		d := float64(base) * math.Pow(multiplier, attempt)
		attempt++
		if d > ceiling || math.IsInf(d, 0) || math.IsNaN(d) {
			d = ceiling
		}
		return time.Duration(d), false
	})

	if cfg.JitterPercent > 0 {
		b = retry.WithJitterPercent(cfg.JitterPercent, b)
	}
	if cfg.MaxDelay > 0 {
		b = retry.WithCappedDuration(cfg.MaxDelay, b)
	}
	if cfg.MaxRetries > 0 {
		b = retry.WithMaxRetries(cfg.MaxRetries, b)
	}
	return b
}
