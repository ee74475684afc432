// Package autosave debounces saves: every Schedule restarts the quiet
// period, and Flush runs whatever is pending synchronously.
package autosave

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a scheduled save runs.
const DefaultDelay = 1500 * time.Millisecond

// Scheduler holds at most one pending save.
//
// Thread-safety: All methods are safe for concurrent use. A save never runs
// concurrently with another save from the same scheduler.
type Scheduler struct {
	mu      sync.Mutex
	runMu   sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending func() error
	seq     uint64 // invalidates stale timer callbacks
	onError func(error)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithErrorHandler receives errors from saves run by the timer. Errors from
// Flush are returned to its caller instead.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// New creates a scheduler. A non-positive delay uses DefaultDelay.
func New(delay time.Duration, opts ...Option) *Scheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}
	s := &Scheduler{delay: delay}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delay returns the quiet period.
func (s *Scheduler) Delay() time.Duration {
	return s.delay
}

// Schedule replaces the pending save with fn and restarts the timer.
func (s *Scheduler) Schedule(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = fn
	s.seq++
	currentSeq := s.seq

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		if s.seq != currentSeq || s.pending == nil {
			s.mu.Unlock()
			return
		}
		fn := s.pending
		s.pending = nil
		s.timer = nil
		s.mu.Unlock()

		if err := s.run(fn); err != nil && s.onError != nil {
			s.onError(err)
		}
	})
}

// Cancel discards the pending save. It reports whether one was pending.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
	had := s.pending != nil
	s.pending = nil
	return had
}

// Flush runs the pending save now and returns its error. It also waits for
// a save already started by the timer, so after Flush returns no scheduled
// work is outstanding.
func (s *Scheduler) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
	fn := s.pending
	s.pending = nil
	s.mu.Unlock()

	if fn == nil {
		s.runMu.Lock()
		defer s.runMu.Unlock()
		return nil
	}
	return s.run(fn)
}

// Pending reports whether a save is waiting for the timer.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *Scheduler) run(fn func() error) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return fn()
}
