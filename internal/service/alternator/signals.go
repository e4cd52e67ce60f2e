package alternator

import (
	"context"
	"sync"
)

// Signal is a set of control bits shared by the worker and its callers.
type Signal uint8

const (
	// SignalStop asks the worker to terminate at its next checkpoint.
	SignalStop Signal = 1 << iota
	// SignalPause asks the worker to suspend at its next checkpoint.
	SignalPause
	// SignalRunning is set by the worker while it is alive.
	SignalRunning
)

// Has reports whether every bit of mask is set.
func (s Signal) Has(mask Signal) bool {
	return s&mask == mask
}

// Signals is a mutex-guarded bit set whose waiters are woken on every change.
type Signals struct {
	// bits holds the current signal values.
	bits Signal
	// changed is closed and replaced whenever bits change.
	changed chan struct{}
	// mu protects bits and changed.
	mu sync.Mutex
}

// NewSignals creates an empty signal set.
func NewSignals() *Signals {
	return &Signals{
		changed: make(chan struct{}),
	}
}

// Load returns the current bits.
func (s *Signals) Load() Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.bits
}

// Set raises the bits in mask and returns the resulting set.
func (s *Signals) Set(mask Signal) Signal {
	return s.update(func(bits Signal) Signal { return bits | mask })
}

// Clear lowers the bits in mask and returns the resulting set.
func (s *Signals) Clear(mask Signal) Signal {
	return s.update(func(bits Signal) Signal { return bits &^ mask })
}

// Toggle flips the bits in mask and returns the resulting set.
func (s *Signals) Toggle(mask Signal) Signal {
	return s.update(func(bits Signal) Signal { return bits ^ mask })
}

// Wait blocks until match accepts the current bits or ctx is done.
// It never polls: waiters sleep on a channel that is closed on each change.
func (s *Signals) Wait(ctx context.Context, match func(Signal) bool) (Signal, error) {
	for {
		s.mu.Lock()
		bits, changed := s.bits, s.changed
		s.mu.Unlock()

		if match(bits) {
			return bits, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return bits, ctx.Err()
		}
	}
}

// update applies fn and wakes waiters when the bits actually changed.
func (s *Signals) update(fn func(Signal) Signal) Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.bits)
	if next != s.bits {
		s.bits = next
		close(s.changed)
		s.changed = make(chan struct{})
	}

	return next
}
