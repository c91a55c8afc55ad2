package store

import (
	"context"
	"errors"
)

type metaReader interface {
	GetMeta(ctx context.Context, key string) (string, error)
}

type metaReadWriter interface {
	metaReader
	PutMeta(ctx context.Context, key, value string) error
}

// raiseClockWatermark records clock as the highest clock seen for deviceID
// and for the store as a whole.
func raiseClockWatermark(ctx context.Context, m metaReadWriter, deviceID string, clock int64) error {
	for _, key := range []string{clockMetaKey(deviceID), clockMetaKey("")} {
		current, err := readClockWatermark(ctx, m, key)
		if err != nil {
			return err
		}
		if clock <= current {
			continue
		}
		if err := m.PutMeta(ctx, key, formatClock(clock)); err != nil {
			return err
		}
	}
	return nil
}

func readClockWatermark(ctx context.Context, m metaReader, key string) (int64, error) {
	v, err := m.GetMeta(ctx, key)
	if errors.Is(err, ErrMetaNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseClock(v)
}
