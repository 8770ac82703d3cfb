package ratelimit

import (
	"context"
	"sync"
	"time"
)

// FixedDelayLimiter spaces requests at least delay apart.
type FixedDelayLimiter struct {
	delay time.Duration
	next  time.Time
	mu    sync.Mutex
}

// NewFixedDelayLimiter creates a new fixed delay limiter.
func NewFixedDelayLimiter(cfg Config) *FixedDelayLimiter {
	cfg = applyDefaults(cfg)
	return &FixedDelayLimiter{delay: cfg.FixedDelay}
}

// Wait claims the next slot and sleeps until it starts.
func (fdl *FixedDelayLimiter) Wait(ctx context.Context) error {
	fdl.mu.Lock()
	now := time.Now()
	slot := now
	if fdl.next.After(now) {
		slot = fdl.next
	}
	fdl.next = slot.Add(fdl.delay)
	fdl.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
