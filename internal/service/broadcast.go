package service

import "sync"

// broadcaster fans values out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the value.
type broadcaster[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan T
}

func newBroadcaster[T any]() *broadcaster[T] {
	return &broadcaster[T]{subs: make(map[int]chan T)}
}

func (b *broadcaster[T]) subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// publish returns the number of subscribers that missed v.
func (b *broadcaster[T]) publish(v T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	dropped := 0
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			dropped++
		}
	}
	return dropped
}

func (b *broadcaster[T]) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
