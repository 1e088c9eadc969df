package event

import (
	"sync"
	"time"
)

// Bus fans one ordered event feed out to every subscribed stream.
// Dispatch is synchronous and in subscription order: event N is handed to
// every stream before event N+1 is accepted, so subscribers observe the
// producer's delivery order. Per-stream buffering is what decouples slow
// consumers, not concurrent dispatch.
type Bus[E any] struct {
	notifyTimeout time.Duration

	mu      sync.Mutex
	streams []Stream[E]
}

func NewBus[E any](notifyTimeout time.Duration) *Bus[E] {
	return &Bus[E]{notifyTimeout: notifyTimeout}
}

func (b *Bus[E]) Add(s Stream[E]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.streams = append(b.streams, s)
}

// Remove detaches and closes the stream with the given ID.
func (b *Bus[E]) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.streams {
		if s.ID() != id {
			continue
		}
		b.streams = append(b.streams[:i], b.streams[i+1:]...)
		s.Close()
		return
	}
}

// Publish delivers the event to every subscriber. Streams that fail to
// accept it (closed, or blocked past the timeout) are dropped.
func (b *Bus[E]) Publish(event E) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.streams[:0]
	for _, s := range b.streams {
		if err := s.Notify(event, b.notifyTimeout); err != nil {
			continue
		}
		kept = append(kept, s)
	}
	b.streams = kept
}

func (b *Bus[E]) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.streams {
		s.Close()
	}
	b.streams = nil
}

func (b *Bus[E]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.streams)
}
