package resilience

import (
	"context"
	"sync"
	"time"
)

// LimiterConfig configures a Limiter.
type LimiterConfig struct {
	// Rate is the number of tokens added per second.
	Rate float64
	// Burst is the bucket size. Zero selects max(1, Rate).
	Burst int
}

// Limiter is a token bucket shared by any number of goroutines.
type Limiter struct {
	rate  float64
	burst float64

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewLimiter returns a full bucket. A non-positive rate yields nil, which
// every method treats as unlimited.
func NewLimiter(cfg LimiterConfig) *Limiter {
	if cfg.Rate <= 0 {
		return nil
	}
	burst := float64(cfg.Burst)
	if burst <= 0 {
		burst = max(1, cfg.Rate)
	}
	return &Limiter{
		rate:   cfg.Rate,
		burst:  burst,
		tokens: burst,
		last:   time.Now(),
	}
}

// Allow takes one token if one is available.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill(time.Now())
	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

// Wait takes one token, sleeping until it is due. The token stays taken
// when ctx ends first.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	l.mu.Lock()
	l.refill(time.Now())
	l.tokens--
	deficit := -l.tokens
	l.mu.Unlock()

	if deficit <= 0 {
		return nil
	}
	timer := time.NewTimer(time.Duration(deficit / l.rate * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Tokens returns the tokens currently available. It is negative while
// waiters hold reservations.
func (l *Limiter) Tokens() float64 {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill(time.Now())
	return l.tokens
}

func (l *Limiter) refill(now time.Time) {
	l.tokens = min(l.burst, l.tokens+now.Sub(l.last).Seconds()*l.rate)
	l.last = now
}
