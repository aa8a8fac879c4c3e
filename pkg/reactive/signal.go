package reactive

import (
	"sync"
)

// Listener receives the new value of a State.
type Listener[T any] func(T)

// State represents an observable value. Subscribers are invoked synchronously,
// in subscription order, every time the value is set.
type State[T any] struct {
	value T
	mu    sync.RWMutex

	subs   []subscription[T]
	nextID uint32
	subsMu sync.RWMutex
}

type subscription[T any] struct {
	id uint32
	fn Listener[T]
}

// NewState creates a new observable state
func NewState[T any](initial T) *State[T] {
	return &State[T]{value: initial}
}

// Get returns the current value
func (s *State[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the value and notifies subscribers
func (s *State[T]) Set(value T) {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()

	s.notify(value)
}

// Update atomically reads, modifies, and writes the value
func (s *State[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.value = fn(s.value)
	newValue := s.value
	s.mu.Unlock()

	s.notify(newValue)
}

// Subscribe registers fn and returns a function that removes it again.
func (s *State[T]) Subscribe(fn Listener[T]) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.subsMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription[T]{id: id, fn: fn})
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// notify calls listeners outside the locks so a listener may read or set the state again
func (s *State[T]) notify(value T) {
	s.subsMu.RLock()
	subs := make([]subscription[T], len(s.subs))
	copy(subs, s.subs)
	s.subsMu.RUnlock()

	for _, sub := range subs {
		sub.fn(value)
	}
}

// Signal is a value-less notification source. Notifications raised inside
// Batch are coalesced into a single notification when the outermost batch
// returns.
type Signal struct {
	mu      sync.Mutex
	subs    []subscription[struct{}]
	nextID  uint32
	depth   int
	pending bool
}

// NewSignal creates a new signal
func NewSignal() *Signal {
	return &Signal{}
}

// Subscribe registers fn and returns a function that removes it again.
func (s *Signal) Subscribe(fn func()) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription[struct{}]{id: id, fn: func(struct{}) { fn() }})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify fires every subscriber once, or defers to the end of the active batch.
func (s *Signal) Notify() {
	s.mu.Lock()
	if s.depth > 0 {
		s.pending = true
		s.mu.Unlock()
		return
	}
	subs := make([]subscription[struct{}], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(struct{}{})
	}
}

// Batch runs fn and raises at most one notification for everything fn notified.
func (s *Signal) Batch(fn func()) {
	s.mu.Lock()
	s.depth++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.depth--
		fire := s.depth == 0 && s.pending
		if fire {
			s.pending = false
		}
		s.mu.Unlock()

		if fire {
			s.Notify()
		}
	}()

	fn()
}

// Subscribers returns the number of registered subscribers
func (s *Signal) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
