package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

type RateLimiter interface {
	Wait(ctx context.Context) error
	Delay() time.Duration
}

// IntervalLimiter spaces actions at least delay apart. A zero delay never
// blocks.
type IntervalLimiter struct {
	limiter *rate.Limiter
	delay   time.Duration
}

func NewIntervalLimiter(delay time.Duration) *IntervalLimiter {
	if delay <= 0 {
		return &IntervalLimiter{limiter: rate.NewLimiter(rate.Inf, 1), delay: delay}
	}
	return &IntervalLimiter{limiter: rate.NewLimiter(rate.Every(delay), 1), delay: delay}
}

func (l *IntervalLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

func (l *IntervalLimiter) Delay() time.Duration {
	return l.delay
}
