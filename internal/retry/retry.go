// Package retry decides whether a failed content fetch is attempted again
// and how long to wait first.
package retry

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 500 * time.Millisecond
	DefaultMaxDelay   = 3 * time.Second
)

// State is the position of a fetch in the retry lifecycle.
type State int

const (
	Idle State = iota
	Attempting
	Success
	Retrying
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attempting:
		return "attempting"
	case Success:
		return "success"
	case Retrying:
		return "retrying"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Strategy is a linear, capped backoff. Retries happen only for forced
// fetches. Goroutine-safe.
type Strategy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// sleep is replaced in tests; it must return early when ctx is done.
	sleep func(ctx context.Context, d time.Duration)

	mu    sync.Mutex
	count int
	state State
}

// New returns a Strategy with the default limits.
func New() *Strategy {
	return &Strategy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	}
}

// Delay returns the wait before the retry that follows count previous retries.
func (s *Strategy) Delay(count int) time.Duration {
	d := s.BaseDelay * time.Duration(count)
	if d > s.MaxDelay {
		d = s.MaxDelay
	}
	return d
}

// Begin marks an attempt as started.
func (s *Strategy) Begin() {
	s.mu.Lock()
	s.state = Attempting
	s.mu.Unlock()
}

// Succeed marks the current attempt successful.
func (s *Strategy) Succeed() {
	s.mu.Lock()
	s.state = Success
	s.mu.Unlock()
}

// Wait reports whether the caller should retry. It returns false at once
// unless force is set, fewer than MaxRetries retries have happened, and ctx
// is live. Otherwise it sleeps for Delay(Count()) and reports whether ctx
// survived the sleep.
func (s *Strategy) Wait(ctx context.Context, force bool) bool {
	s.mu.Lock()
	if !force || s.count >= s.MaxRetries || ctx.Err() != nil {
		s.state = Exhausted
		s.mu.Unlock()
		return false
	}
	s.state = Retrying
	delay := s.Delay(s.count)
	sleep := s.sleep
	s.mu.Unlock()

	if sleep == nil {
		sleep = sleepCtx
	}
	sleep(ctx, delay)
	if ctx.Err() != nil {
		s.mu.Lock()
		s.state = Exhausted
		s.mu.Unlock()
		return false
	}
	return true
}

// Increment records one retry and returns the new count.
func (s *Strategy) Increment() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	return s.count
}

// Reset zeroes the retry count. Called once a fetch finishes, never mid-flight.
func (s *Strategy) Reset() {
	s.mu.Lock()
	s.count = 0
	s.state = Idle
	s.mu.Unlock()
}

// Count returns the number of retries so far.
func (s *Strategy) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// State returns the current lifecycle state.
func (s *Strategy) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
