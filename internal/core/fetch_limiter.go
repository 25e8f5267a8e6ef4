package core

// fetch_limiter.go bounds how many upstream sheet fetches run at once.
//
// Every live fetch holds one slot for its whole retry sequence. When all
// slots are taken a caller waits up to maxWait and then gets ErrTooManyFetches,
// which the data source turns into a sample-data fallback. WaitForDrain lets
// shutdown wait for in-flight fetches.

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrTooManyFetches is returned when no fetch slot frees up in time.
var ErrTooManyFetches = errors.New("too many concurrent fetches, please try again later")

const (
	// DefaultMaxConcurrentFetches is used when the configured limit is not positive.
	DefaultMaxConcurrentFetches = 4

	// DefaultFetchWait is used when the configured wait is not positive.
	DefaultFetchWait = 5 * time.Second

	drainPollInterval = 50 * time.Millisecond
)

// FetchLimiter is a counting semaphore for upstream fetches.
type FetchLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu       sync.RWMutex
	active   int
	rejected int
}

// NewFetchLimiter allows at most maxConcurrent fetches; callers wait up to
// maxWait for a slot.
func NewFetchLimiter(maxConcurrent int, maxWait time.Duration) *FetchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentFetches
	}
	if maxWait <= 0 {
		maxWait = DefaultFetchWait
	}
	return &FetchLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot. It returns ErrTooManyFetches when maxWait passes
// first, or ctx's error when ctx ends first. Callers must Release on success.
func (l *FetchLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-timer.C:
		l.mu.Lock()
		l.rejected++
		l.mu.Unlock()
		return ErrTooManyFetches

	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire.
func (l *FetchLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// ActiveCount returns the number of fetches holding a slot.
func (l *FetchLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until no fetch holds a slot or ctx ends.
func (l *FetchLimiter) WaitForDrain(ctx context.Context) error {
	if l.ActiveCount() == 0 {
		return nil
	}

	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}

// FetchLimiterStatus is a point-in-time view of the limiter.
type FetchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
	Rejected      int `json:"rejected"`
}

// Status returns the current limiter state.
func (l *FetchLimiter) Status() FetchLimiterStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return FetchLimiterStatus{
		Active:        l.active,
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
		Rejected:      l.rejected,
	}
}
