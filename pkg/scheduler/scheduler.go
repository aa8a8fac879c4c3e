// Package scheduler runs work items one at a time on a single goroutine,
// the way a UI event loop does. Everything posted to a Scheduler runs to
// completion before the next item starts, so state owned by the loop needs no
// locking.
package scheduler

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ErrStopped is returned when work is posted to a scheduler that is not running
var ErrStopped = errors.New("scheduler: not running")

// ErrorHandler handles panics raised by a work item.
// Returns true to keep the loop running, false to stop it.
type ErrorHandler func(err error) bool

// Task is a delayed continuation created by After.
type Task struct {
	id        uint64
	timer     *time.Timer
	cancelled atomic.Bool
	fired     atomic.Bool
}

// ID returns the task's unique ID
func (t *Task) ID() uint64 {
	return t.id
}

// Cancel prevents the task from running. It reports false when the task
// already ran or was already cancelled.
func (t *Task) Cancel() bool {
	if t.fired.Load() {
		return false
	}
	if !t.cancelled.CompareAndSwap(false, true) {
		return false
	}
	t.timer.Stop()
	return true
}

// Scheduler manages the event loop
type Scheduler struct {
	mu      sync.Mutex
	queue   chan func()
	stop    chan struct{}
	done    chan struct{}
	running atomic.Bool
	nextID  atomic.Uint64

	onError ErrorHandler
	log     zerolog.Logger
}

// Option configures a scheduler
type Option func(*Scheduler)

// WithLogger sets the logger used for recovered panics
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

// WithErrorHandler sets the panic handler
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *Scheduler) { s.onError = h }
}

// WithQueueSize sets the capacity of the work queue
func WithQueueSize(n int) Option {
	return func(s *Scheduler) { s.queue = make(chan func(), n) }
}

// NewScheduler creates a new scheduler instance
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		queue: make(chan func(), 1024), // buffered for performance
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the scheduler loop
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
}

// Stop stops the scheduler and waits for the item in progress to finish.
// Items still queued are discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running.CompareAndSwap(true, false) {
		s.mu.Unlock()
		return
	}
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// Post queues fn to run on the loop. Blocks while the queue is full.
func (s *Scheduler) Post(fn func()) error {
	if fn == nil {
		return nil
	}
	s.mu.Lock()
	if !s.running.Load() {
		s.mu.Unlock()
		return ErrStopped
	}
	stop := s.stop
	s.mu.Unlock()

	select {
	case s.queue <- fn:
		return nil
	case <-stop:
		return ErrStopped
	}
}

// Call runs fn on the loop and waits for it to finish.
// Must not be called from the loop itself.
func (s *Scheduler) Call(fn func()) error {
	finished := make(chan struct{})
	if err := s.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	select {
	case <-finished:
		return nil
	case <-done:
		return ErrStopped
	}
}

// After schedules fn to be posted to the loop once d has elapsed. There is no
// guarantee beyond "not before d"; the returned task can be cancelled until it
// starts running.
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	task := &Task{id: s.nextID.Add(1)}
	task.timer = time.AfterFunc(d, func() {
		if task.cancelled.Load() {
			return
		}
		if err := s.Post(func() {
			if task.cancelled.Load() {
				return
			}
			task.fired.Store(true)
			fn()
		}); err != nil {
			s.log.Debug().Uint64("task", task.id).Err(err).Msg("dropping delayed task")
		}
	})
	return task
}

// loop is the main scheduler event loop
func (s *Scheduler) loop(stop, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		case fn := <-s.queue:
			if !s.run(fn) {
				s.mu.Lock()
				if s.running.CompareAndSwap(true, false) {
					close(stop)
				}
				s.mu.Unlock()
				return
			}
		}
	}
}

// run executes a single item and reports whether the loop should continue
func (s *Scheduler) run(fn func()) (keepRunning bool) {
	keepRunning = true
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("scheduler: panic: %v\n%s", r, debug.Stack())
			s.log.Error().Err(err).Msg("recovered panic in event loop")
			if s.onError != nil {
				keepRunning = s.onError(err)
			}
		}
	}()

	fn()
	return keepRunning
}
