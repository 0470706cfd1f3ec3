package ratelimit

import (
	"sync"
	"time"
)

// Limiter defines the interface for request pacing
type Limiter interface {
	// Allow checks if a request may proceed immediately
	Allow() bool
	// Wait blocks until the pacer allows another request
	Wait()
	// Reset resets the pacer state
	Reset()
}

// FixedInterval paces requests so that consecutive calls are separated by at
// least one interval. This is the courtesy delay between listing page
// requests; there is no negotiation with the remote service beyond it.
type FixedInterval struct {
	interval time.Duration
	last     time.Time
	mu       sync.Mutex
}

// NewFixedInterval creates a pacer enforcing the given minimum gap between
// requests
func NewFixedInterval(interval time.Duration) *FixedInterval {
	return &FixedInterval{interval: interval}
}

// Allow reports whether enough time has passed since the previous request,
// consuming the slot when it has
func (f *FixedInterval) Allow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	if f.last.IsZero() || now.Sub(f.last) >= f.interval {
		f.last = now
		return true
	}
	return false
}

// Wait blocks until the interval has elapsed, then consumes the slot
func (f *FixedInterval) Wait() {
	for {
		f.mu.Lock()
		now := time.Now()
		if f.last.IsZero() || now.Sub(f.last) >= f.interval {
			f.last = now
			f.mu.Unlock()
			return
		}
		remaining := f.interval - now.Sub(f.last)
		f.mu.Unlock()

		time.Sleep(remaining)
	}
}

// Reset clears the pacer so the next request proceeds immediately
func (f *FixedInterval) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = time.Time{}
}

// Nop is a pacer that never delays. Used by tests and by the one-shot
// download path when pacing is disabled.
type Nop struct{}

func (Nop) Allow() bool { return true }
func (Nop) Wait()       {}
func (Nop) Reset()      {}
