package bookings

import (
	"errors"
	"sync"
	"time"
)

var errBreakerOpen = errors.New("partner circuit open")

// breaker trips after consecutive partner failures so a dead partner
// service fails fast instead of tying up request handlers on timeouts.
// Closed -> open after maxFailures; open -> half-open after resetTimeout;
// one probe decides whether to close again.
type breaker struct {
	maxFailures  int
	resetTimeout time.Duration

	mu          sync.Mutex
	open        bool
	probing     bool
	failures    int
	lastFailure time.Time
}

func newBreaker(maxFailures int, resetTimeout time.Duration) *breaker {
	return &breaker{maxFailures: maxFailures, resetTimeout: resetTimeout}
}

func (b *breaker) call(fn func() error) error {
	b.mu.Lock()
	if b.open {
		if time.Since(b.lastFailure) < b.resetTimeout || b.probing {
			b.mu.Unlock()
			return errBreakerOpen
		}
		b.probing = true
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	if err != nil {
		b.failures++
		b.lastFailure = time.Now()
		if b.failures >= b.maxFailures {
			b.open = true
		}
		return err
	}
	b.failures = 0
	b.open = false
	return nil
}
