package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Records are stored as JSON. Decoding ignores unknown fields, so a store
// written by a newer release stays readable.

func encodeRecord(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingRecord, err)
	}
	return data, nil
}

func decodeRecord(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodingRecord, err)
	}
	return nil
}

func unixMilli(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func clockMetaKey(deviceID string) string {
	return "clock:" + deviceID
}

func formatClock(v int64) string {
	return strconv.FormatInt(v, 10)
}

func parseClock(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: clock %q: %w", ErrDecodingRecord, s, err)
	}
	return v, nil
}
