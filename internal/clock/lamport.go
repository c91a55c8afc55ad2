// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package clock provides the Lamport logical clock used to order operations
// issued by a device.
package clock

import "sync"

// Lamport is a thread-safe Lamport clock.
//
// Tick is used for every locally issued operation. Witness is used for every
// operation received from another device so that later local operations are
// ordered after everything the device has already seen.
type Lamport struct {
	mu      sync.Mutex
	counter int64
}

// NewLamport returns a clock whose next Tick yields start+1.
func NewLamport(start int64) *Lamport {
	return &Lamport{counter: start}
}

// Tick advances the clock and returns the new value.
func (l *Lamport) Tick() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.counter++
	return l.counter
}

// Witness applies the Lamport receive rule: counter = max(counter, remote) + 1.
func (l *Lamport) Witness(remote int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if remote > l.counter {
		l.counter = remote
	}
	l.counter++
	return l.counter
}

// Observe raises the clock to v if v is ahead of it. Unlike Witness it does
// not tick; it is used when restoring state from storage.
func (l *Lamport) Observe(v int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v > l.counter {
		l.counter = v
	}
}

// Current returns the current value without advancing the clock.
func (l *Lamport) Current() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.counter
}
