// Package serial orders work that targets the same key.
package serial

import "sync"

// Lanes hands out FIFO tickets per key. Work holding a ticket for key k starts only after every
// ticket joined earlier for k has left. Different keys never wait on each other.
type Lanes[K comparable] struct {
	mu    sync.Mutex
	tails map[K]chan struct{}
	depth map[K]int
}

// NewLanes creates an empty set of lanes.
func NewLanes[K comparable]() *Lanes[K] {
	return &Lanes[K]{
		tails: make(map[K]chan struct{}),
		depth: make(map[K]int),
	}
}

// Ticket is a position in the lane of one key.
type Ticket[K comparable] struct {
	lanes *Lanes[K]
	key   K
	prev  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// Join takes the next position for key without blocking. Joining order is execution order,
// so callers join while they still hold the lock that orders their local state changes.
func (l *Lanes[K]) Join(key K) *Ticket[K] {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := &Ticket[K]{
		lanes: l,
		key:   key,
		prev:  l.tails[key],
		done:  make(chan struct{}),
	}
	l.tails[key] = t.done
	l.depth[key]++
	return t
}

// Wait blocks until every earlier ticket of the same key has left.
func (t *Ticket[K]) Wait() {
	if t.prev != nil {
		<-t.prev
	}
}

// Leave releases the position. It is safe to call more than once.
func (t *Ticket[K]) Leave() {
	t.once.Do(func() {
		l := t.lanes
		l.mu.Lock()
		defer l.mu.Unlock()

		close(t.done)
		l.depth[t.key]--
		if l.depth[t.key] <= 0 {
			delete(l.depth, t.key)
			delete(l.tails, t.key)
		}
	})
}

// Depth returns the number of tickets joined for key that have not left yet.
func (l *Lanes[K]) Depth(key K) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.depth[key]
}
