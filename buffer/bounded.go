package buffer

import (
	"sync"

	"github.com/kbukum/pubqueue/errors"
)

// Bounded is a fixed-capacity FIFO shared by any number of producers and a
// single consumer. The zero value is not usable; create one with New.
type Bounded[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	items    []T
	capacity int
	closed   bool
	waiting  int
}

// New creates a buffer holding at most capacity items.
func New[T any](capacity int) (*Bounded[T], error) {
	if capacity <= 0 {
		return nil, errors.InvalidInput("capacity", "must be greater than zero").
			WithDetail("capacity", capacity)
	}
	b := &Bounded[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
	b.notFull = sync.NewCond(&b.mu)
	return b, nil
}

// TryPush appends v if there is room and the buffer is open. It never blocks.
// wasEmpty is true when this append moved the buffer from empty to non-empty.
func (b *Bounded[T]) TryPush(v T) (accepted, wasEmpty bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || len(b.items) >= b.capacity {
		return false, false
	}
	wasEmpty = len(b.items) == 0
	b.items = append(b.items, v)
	return true, wasEmpty
}

// Push appends v, waiting while the buffer is full. There is no timeout: the
// only way out of the wait besides free space is Close, in which case Push
// returns errors.ErrClosed and v is not stored.
func (b *Bounded[T]) Push(v T) (wasEmpty bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for !b.closed && len(b.items) >= b.capacity {
		b.waiting++
		b.notFull.Wait()
		b.waiting--
	}
	if b.closed {
		return false, errors.Closed("buffer")
	}
	wasEmpty = len(b.items) == 0
	b.items = append(b.items, v)
	return wasEmpty, nil
}

// DrainUpTo removes at most n items from the head, preserving order. When the
// buffer was full before the removal every blocked Push is woken; each one
// re-checks for space after waking.
func (b *Bounded[T]) DrainUpTo(n int) []T {
	if n <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	m := min(n, len(b.items))
	if m == 0 {
		return nil
	}
	wasFull := len(b.items) >= b.capacity

	out := make([]T, m)
	copy(out, b.items[:m])
	b.shift(m)

	if wasFull {
		b.notFull.Broadcast()
	}
	return out
}

// Discard drops every buffered item and returns how many were dropped.
func (b *Bounded[T]) Discard() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.items)
	if n == 0 {
		return 0
	}
	wasFull := n >= b.capacity
	b.shift(n)
	if wasFull {
		b.notFull.Broadcast()
	}
	return n
}

// Close stops the buffer from accepting values and releases every blocked
// Push. Items already stored stay available to DrainUpTo. Only the first
// call returns true.
func (b *Bounded[T]) Close() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.closed = true
	b.notFull.Broadcast()
	return true
}

// Len returns the number of buffered items.
func (b *Bounded[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Cap returns the fixed capacity.
func (b *Bounded[T]) Cap() int {
	return b.capacity
}

// IsEmpty reports whether the buffer holds no items.
func (b *Bounded[T]) IsEmpty() bool {
	return b.Len() == 0
}

// Closed reports whether Close has been called.
func (b *Bounded[T]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Waiting returns the number of Push calls currently blocked on a full buffer.
func (b *Bounded[T]) Waiting() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waiting
}

// shift removes the first m items, clearing vacated slots so drained values
// can be collected. Caller holds mu.
func (b *Bounded[T]) shift(m int) {
	rest := copy(b.items, b.items[m:])
	var zero T
	for i := rest; i < len(b.items); i++ {
		b.items[i] = zero
	}
	b.items = b.items[:rest]
}
