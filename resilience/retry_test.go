package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kbukum/pubqueue/errors"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		InitialBackoff: time.Microsecond,
		MaxBackoff:     10 * time.Microsecond,
		BackoffFactor:  2,
	}
}

func TestRetrySucceedsOnFirstAttempt(t *testing.T) {
	attempts, err := Retry(context.Background(), fastRetry(), func() error { return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryRetriesFullUntilRoom(t *testing.T) {
	calls := 0
	attempts, err := Retry(context.Background(), fastRetry(), func() error {
		calls++
		if calls < 5 {
			return ErrFull
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 5 || calls != 5 {
		t.Errorf("attempts = %d, calls = %d, want 5", attempts, calls)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	closed := errors.Closed("queue")
	calls := 0
	attempts, err := Retry(context.Background(), fastRetry(), func() error {
		calls++
		if calls == 1 {
			return ErrFull
		}
		return closed
	})
	if !stderrors.Is(err, errors.ErrClosed) {
		t.Fatalf("expected CLOSED, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestRetryPlainErrorsAreNotRetried(t *testing.T) {
	plain := stderrors.New("boom")
	attempts, err := Retry(context.Background(), fastRetry(), func() error { return plain })
	if err != plain {
		t.Fatalf("expected boom, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryMaxAttempts(t *testing.T) {
	cfg := fastRetry()
	cfg.MaxAttempts = 3
	var retried []int
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }

	attempts, err := Retry(context.Background(), cfg, func() error { return ErrFull })
	if !stderrors.Is(err, ErrFull) {
		t.Fatalf("expected FULL, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("OnRetry attempts = %v, want [1 2]", retried)
	}
}

func TestRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry()
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	attempts, err := Retry(ctx, cfg, func() error { return ErrFull })
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryCancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts, err := Retry(ctx, fastRetry(), func() error {
		t.Error("fn must not run")
		return nil
	})
	if attempts != 0 || !stderrors.Is(err, context.Canceled) {
		t.Errorf("got (%d, %v), want (0, context.Canceled)", attempts, err)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"full", ErrFull, true},
		{"closed", errors.Closed("queue"), false},
		{"plain", stderrors.New("x"), false},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryIf(tt.err); got != tt.want {
				t.Errorf("DefaultRetryIf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2,
	}.withDefaults()

	want := []time.Duration{
		time.Millisecond,
		2 * time.Millisecond,
		4 * time.Millisecond,
		5 * time.Millisecond,
		5 * time.Millisecond,
	}
	for i, w := range want {
		if got := cfg.backoff(i + 1); got != w {
			t.Errorf("backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestBackoffJitterStaysInRange(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2,
		Jitter:         0.5,
	}.withDefaults()

	for range 100 {
		got := cfg.backoff(1)
		if got < 5*time.Millisecond || got > 15*time.Millisecond {
			t.Fatalf("backoff(1) = %v, want within [5ms, 15ms]", got)
		}
	}
}
