package clock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLamport_Tick(t *testing.T) {
	c := NewLamport(0)

	assert.Equal(t, int64(1), c.Tick())
	assert.Equal(t, int64(2), c.Tick())
	assert.Equal(t, int64(2), c.Current())
}

func TestLamport_StartsFromSeed(t *testing.T) {
	c := NewLamport(41)
	assert.Equal(t, int64(42), c.Tick())
}

func TestLamport_Witness(t *testing.T) {
	tests := []struct {
		name   string
		start  int64
		remote int64
		want   int64
	}{
		{name: "remote ahead", start: 3, remote: 10, want: 11},
		{name: "remote behind", start: 10, remote: 3, want: 11},
		{name: "equal", start: 5, remote: 5, want: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLamport(tt.start)
			assert.Equal(t, tt.want, c.Witness(tt.remote))
			assert.Greater(t, c.Tick(), tt.remote)
		})
	}
}

func TestLamport_Observe(t *testing.T) {
	c := NewLamport(5)

	c.Observe(3)
	assert.Equal(t, int64(5), c.Current())

	c.Observe(9)
	assert.Equal(t, int64(9), c.Current())
	assert.Equal(t, int64(10), c.Tick())
}

func TestLamport_ConcurrentTicksAreUnique(t *testing.T) {
	c := NewLamport(0)

	const n = 200
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]struct{}, n)
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := c.Tick()
			mu.Lock()
			seen[v] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	assert.Equal(t, int64(n), c.Current())
}
