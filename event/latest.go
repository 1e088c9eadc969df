package event

import "sync"

// Latest is a conflating single-slot stream: at most one value is current
// at a time, and a new value overwrites an undelivered one. Used for
// promoted-product notifications, where only the most recent store prompt
// matters.
type Latest[E any] struct {
	mu      sync.Mutex
	current E
	present bool
	ch      chan E
}

func NewLatest[E any]() *Latest[E] {
	return &Latest[E]{ch: make(chan E, 1)}
}

// Set replaces the current value and signals the channel, discarding any
// value the consumer has not picked up yet.
func (l *Latest[E]) Set(v E) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = v
	l.present = true

	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
}

// Get returns the current value, if any.
func (l *Latest[E]) Get() (E, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.current, l.present
}

// Channel signals each new value. Only the latest undelivered value is
// observable.
func (l *Latest[E]) Channel() <-chan E {
	return l.ch
}

// Clear drops the current value.
func (l *Latest[E]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero E
	l.current = zero
	l.present = false

	select {
	case <-l.ch:
	default:
	}
}
