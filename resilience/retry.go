package resilience

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/kbukum/pubqueue/errors"
)

// ErrFull is the error an attempt returns when it found no room.
var ErrFull = errors.New(errors.ErrCodeFull, "no room left")

// RetryConfig configures Retry.
type RetryConfig struct {
	// MaxAttempts bounds the number of attempts including the first.
	// Zero means no bound.
	MaxAttempts int
	// InitialBackoff is the delay after the first failed attempt.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay.
	MaxBackoff time.Duration
	// BackoffFactor multiplies the delay after each failed attempt.
	BackoffFactor float64
	// Jitter randomizes each delay by up to this fraction (0.0 to 1.0).
	Jitter float64
	// RetryIf reports whether an error is worth another attempt.
	RetryIf func(error) bool
	// OnRetry is called before sleeping.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// DefaultRetryConfig suits attempts against an in-process queue: short
// delays, no attempt bound.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialBackoff: 50 * time.Microsecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries AppErrors marked retryable, such as ErrFull.
// Context errors are never retried.
func DefaultRetryIf(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	appErr, ok := errors.AsAppError(err)
	return ok && appErr.Retryable
}

// Retry calls fn until it returns nil. It returns the number of attempts
// made and the last error. Context cancellation ends the loop with the
// context error.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) (int, error) {
	cfg = cfg.withDefaults()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		err := fn()
		if err == nil {
			return attempt, nil
		}
		if !cfg.RetryIf(err) || attempt == cfg.MaxAttempts {
			return attempt, err
		}

		backoff := cfg.backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, backoff)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
}

func (cfg RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = d.InitialBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = max(d.MaxBackoff, cfg.InitialBackoff)
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = d.BackoffFactor
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = DefaultRetryIf
	}
	return cfg
}

// backoff returns the delay after the given failed attempt.
func (cfg RetryConfig) backoff(attempt int) time.Duration {
	d := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if cfg.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * cfg.Jitter
	}
	d = min(d, float64(cfg.MaxBackoff))
	if d <= 0 {
		d = float64(cfg.InitialBackoff)
	}
	return time.Duration(d)
}
