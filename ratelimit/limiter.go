// Package ratelimit paces calls to the external item source: at most one
// call in flight at a time, with a minimum delay after each call completes
// before the next may begin.
package ratelimit

import (
	"context"
	"time"
)

type Limiter struct {
	slot  chan struct{}
	delay time.Duration
}

func New(delay time.Duration) *Limiter {
	return &Limiter{
		slot:  make(chan struct{}, 1),
		delay: delay,
	}
}

// Acquire blocks until the single slot is free, or until ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the slot after the pacing delay has elapsed. It returns
// immediately; the next Acquire waits out the remainder of the delay.
func (l *Limiter) Release() {
	if l.delay <= 0 {
		<-l.slot
		return
	}
	time.AfterFunc(l.delay, func() { <-l.slot })
}
