// Package pubsub broadcasts state snapshots to subscribers.
package pubsub

import "sync"

// Topic delivers the latest published value to every subscriber. A slow subscriber
// only ever misses intermediate values, never the most recent one, and never blocks Publish.
type Topic[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan T
}

// NewTopic creates a topic without subscribers.
func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{subs: make(map[int]chan T)}
}

// Subscribe returns a channel of snapshots and a function that closes it.
func (t *Topic[T]) Subscribe() (<-chan T, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	ch := make(chan T, 1)
	t.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subs, id)
			close(ch)
		})
	}
}

// Publish replaces any undelivered value of each subscriber with v.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ch := range t.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// drop the stale snapshot
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Len returns the number of active subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
