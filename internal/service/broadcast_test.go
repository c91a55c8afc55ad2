package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_FanOut(t *testing.T) {
	b := newBroadcaster[int]()

	first, cancelFirst := b.subscribe(2)
	second, cancelSecond := b.subscribe(2)
	defer cancelSecond()
	require.Equal(t, 2, b.count())

	assert.Zero(t, b.publish(7))
	assert.Equal(t, 7, <-first)
	assert.Equal(t, 7, <-second)

	cancelFirst()
	cancelFirst()
	assert.Equal(t, 1, b.count())
	_, ok := <-first
	assert.False(t, ok)
}

func TestBroadcaster_SlowSubscriberMissesValues(t *testing.T) {
	b := newBroadcaster[string]()

	ch, cancel := b.subscribe(0)
	defer cancel()

	assert.Zero(t, b.publish("a"))
	assert.Equal(t, 1, b.publish("b"), "a full buffer never blocks the publisher")
	assert.Equal(t, "a", <-ch)
	assert.Empty(t, ch)
}
