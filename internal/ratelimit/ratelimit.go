// Package ratelimit provides the per-source rolling-window limiter used
// by the fetch scheduler. One Limiter instance is created per source (or
// per endpoint when the source declares endpoint-scoped limits); state
// is never shared across sources.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// Limiter admits at most MaxRequests calls within any rolling window of
// the configured duration. Admission timestamps are shared across all
// workers of a source and mutated under a single mutex: concurrent
// admission checks cannot both take the last remaining slot.
type Limiter struct {
	mu     sync.Mutex
	policy domain.RateLimitPolicy
	stamps []time.Time
}

// New creates a limiter for one source. An unlimited policy admits
// every call immediately.
func New(policy domain.RateLimitPolicy) *Limiter {
	return &Limiter{policy: policy}
}

// Wait blocks until admitting a call would not exceed the limit within
// the current rolling window, then records the admission. Returns early
// with the context error on cancellation.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.policy.Unlimited() {
		return ctx.Err()
	}

	for {
		l.mu.Lock()
		now := time.Now()
		l.prune(now)

		if len(l.stamps) < l.policy.MaxRequests {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}

		// Window full: the next slot opens when the oldest admission
		// leaves the window.
		wakeAt := l.stamps[0].Add(l.policy.Window)
		l.mu.Unlock()

		timer := time.NewTimer(time.Until(wakeAt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Available returns the number of admission slots currently open.
func (l *Limiter) Available() int {
	if l.policy.Unlimited() {
		return int(^uint(0) >> 1)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(time.Now())
	return l.policy.MaxRequests - len(l.stamps)
}

// prune drops admissions that have left the rolling window.
// Caller holds l.mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.policy.Window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}
