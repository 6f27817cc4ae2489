package util

import (
	"sync"
)

// AtomicEvent holds the latest published value of type T and signals
// readers through a buffered notification channel. Publishing never
// blocks; intermediate values are overwritten.
type AtomicEvent[T any] struct {
	mu      sync.Mutex
	value   T
	pending bool
	notify  chan struct{}
}

// NewAtomicEvent creates a new AtomicEvent instance.
func NewAtomicEvent[T any]() *AtomicEvent[T] {
	return &AtomicEvent[T]{
		notify: make(chan struct{}, 1),
	}
}

// Send replaces the held value and raises a notification if none is
// pending yet.
func (ae *AtomicEvent[T]) Send(event T) {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	ae.value = event
	ae.pending = true

	select {
	case ae.notify <- struct{}{}:
	default:
		// a notification is already queued
	}
}

// Channel returns the notification channel for use in select statements.
func (ae *AtomicEvent[T]) Channel() <-chan struct{} {
	return ae.notify
}

// Value returns the latest value without consuming it.
func (ae *AtomicEvent[T]) Value() T {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	return ae.value
}

// Consume returns the latest value if one was sent since the last
// Consume, and clears the pending notification.
func (ae *AtomicEvent[T]) Consume() (T, bool) {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	select {
	case <-ae.notify:
	default:
	}
	if !ae.pending {
		var zero T
		return zero, false
	}
	ae.pending = false
	return ae.value, true
}

// HasPending reports whether a value was sent and not yet consumed.
func (ae *AtomicEvent[T]) HasPending() bool {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	return ae.pending
}
