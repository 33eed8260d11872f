package pubqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/kbukum/pubqueue/flow"
	"github.com/kbukum/pubqueue/logger"
)

const waitTimeout = 5 * time.Second

// collector records every signal it receives.
type collector[T any] struct {
	initial int

	mu        sync.Mutex
	sub       flow.Subscription
	items     []T
	err       error
	completed bool

	subscribed chan struct{}
	done       chan struct{}
}

func newCollector[T any](initial int) *collector[T] {
	return &collector[T]{
		initial:    initial,
		subscribed: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (c *collector[T]) OnSubscribe(s flow.Subscription) {
	c.mu.Lock()
	c.sub = s
	c.mu.Unlock()
	close(c.subscribed)
	if c.initial > 0 {
		s.Request(c.initial)
	}
}

func (c *collector[T]) OnNext(v T) {
	c.mu.Lock()
	c.items = append(c.items, v)
	c.mu.Unlock()
}

func (c *collector[T]) OnError(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	close(c.done)
}

func (c *collector[T]) OnComplete() {
	c.mu.Lock()
	c.completed = true
	c.mu.Unlock()
	close(c.done)
}

func (c *collector[T]) request(t *testing.T, n int) {
	t.Helper()
	select {
	case <-c.subscribed:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for OnSubscribe")
	}
	c.mu.Lock()
	sub := c.sub
	c.mu.Unlock()
	sub.Request(n)
}

func (c *collector[T]) snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

func (c *collector[T]) waitItems(t *testing.T, n int) []T {
	t.Helper()
	waitFor(t, func() bool { return len(c.snapshot()) >= n })
	return c.snapshot()
}

func (c *collector[T]) waitDone(t *testing.T) (err error, completed bool) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for terminal signal")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err, c.completed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before timeout")
		}
		time.Sleep(time.Millisecond)
	}
}

func newQueue[T any](t *testing.T, cfg Config, opts ...Option) (*Queue[T], flow.Publisher[T]) {
	t.Helper()
	opts = append([]Option{WithLogger(logger.NewNop())}, opts...)
	q, pub, err := New[T](cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return q, pub
}
