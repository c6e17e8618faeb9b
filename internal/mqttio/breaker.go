package mqttio

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen reports a publish rejected while the breaker cools down.
var ErrBreakerOpen = errors.New("mqttio: publish breaker open")

// publishBreaker is a minimal circuit breaker for the publish path: a run of
// consecutive failures opens it, a cooldown elapses before the next attempt
// is allowed, and a single success closes it again.
type publishBreaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	failures  int
	openUntil time.Time
}

func newPublishBreaker(threshold int, cooldown time.Duration) *publishBreaker {
	if threshold < 1 {
		threshold = 1
	}
	return &publishBreaker{threshold: threshold, cooldown: cooldown}
}

// allow reports whether a publish attempt may proceed.
func (b *publishBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.threshold {
		return true
	}
	// Open: permit a probe once the cooldown has elapsed.
	return !time.Now().Before(b.openUntil)
}

func (b *publishBreaker) success() {
	b.mu.Lock()
	b.failures = 0
	b.mu.Unlock()
}

func (b *publishBreaker) failure() {
	b.mu.Lock()
	b.failures++
	if b.failures >= b.threshold {
		b.openUntil = time.Now().Add(b.cooldown)
	}
	b.mu.Unlock()
}
