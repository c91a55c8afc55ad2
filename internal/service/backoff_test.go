package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/innerhue/moodsync/internal/config"
)

func TestNewBackoff_ExponentialAndCapped(t *testing.T) {
	b := newBackoff(config.Sync{BaseDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: time.Second})

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, w := range want {
		d, stop := b.Next()
		assert.False(t, stop, "attempt %d", i)
		assert.Equal(t, w, d, "attempt %d", i)
	}
}

func TestNewBackoff_Unbounded(t *testing.T) {
	b := newBackoff(config.Sync{BaseDelay: time.Millisecond, Multiplier: 3, MaxDelay: 10 * time.Millisecond})

	for range 1000 {
		d, stop := b.Next()
		assert.False(t, stop)
		assert.LessOrEqual(t, d, 10*time.Millisecond)
	}
}

func TestNewBackoff_MaxRetries(t *testing.T) {
	b := newBackoff(config.Sync{BaseDelay: time.Millisecond, MaxRetries: 2})

	for range 2 {
		_, stop := b.Next()
		assert.False(t, stop)
	}
	_, stop := b.Next()
	assert.True(t, stop)
}

func TestNewBackoff_Jitter(t *testing.T) {
	b := newBackoff(config.Sync{BaseDelay: 100 * time.Millisecond, Multiplier: 1, JitterPercent: 10})

	for range 50 {
		d, _ := b.Next()
		assert.GreaterOrEqual(t, d, 90*time.Millisecond)
		assert.LessOrEqual(t, d, 110*time.Millisecond)
	}
}

func TestNewBackoff_Defaults(t *testing.T) {
	b := newBackoff(config.Sync{})

	d, stop := b.Next()
	assert.False(t, stop)
	assert.Equal(t, defaultBaseDelay, d)
	d, _ = b.Next()
	assert.Equal(t, 2*defaultBaseDelay, d)
}
