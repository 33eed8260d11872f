package pipeline

import (
	"context"
	"sync"

	"github.com/kbukum/pubqueue/flow"
)

// maxPrefetch bounds the channel allocated by FromPublisher.
const maxPrefetch = 1 << 16

// FromPublisher subscribes to pub when the pipeline runs. It requests
// prefetch items up front and requests more each time half of them have
// been pulled, so at most prefetch items are ever waiting for the consumer.
// A non-positive prefetch selects flow.DefaultBatchSize.
//
// Next returns every item before reporting the end of the stream: (zero,
// false, nil) after OnComplete, or the subscriber error after OnError.
// Closing the iterator cancels the subscription.
func FromPublisher[T any](pub flow.Publisher[T], prefetch int) *Pipeline[T] {
	if prefetch <= 0 {
		prefetch = flow.DefaultBatchSize
	}
	prefetch = min(prefetch, maxPrefetch)
	return &Pipeline[T]{
		create: func(context.Context) Iterator[T] {
			it := &subscriberIter[T]{
				prefetch: prefetch,
				refill:   max(1, prefetch/2),
				items:    make(chan T, prefetch),
				done:     make(chan struct{}),
			}
			pub.Subscribe(it)
			return it
		},
	}
}

// subscriberIter is both the flow.Subscriber handed to the publisher and the
// Iterator handed to the pipeline.
type subscriberIter[T any] struct {
	prefetch int
	refill   int
	items    chan T
	done     chan struct{}

	mu     sync.Mutex
	sub    flow.Subscription
	err    error
	closed bool

	// consumed counts pulls since the last request. Only Next touches it.
	consumed int
}

var _ flow.Subscriber[int] = (*subscriberIter[int])(nil)

func (it *subscriberIter[T]) OnSubscribe(s flow.Subscription) {
	it.mu.Lock()
	closed := it.closed
	it.sub = s
	it.mu.Unlock()

	if closed {
		s.Cancel()
		return
	}
	s.Request(it.prefetch)
}

// OnNext never blocks: outstanding demand plus queued items never exceed
// the channel capacity.
func (it *subscriberIter[T]) OnNext(v T) {
	it.items <- v
}

func (it *subscriberIter[T]) OnError(err error) {
	it.mu.Lock()
	it.err = err
	it.mu.Unlock()
	close(it.done)
}

func (it *subscriberIter[T]) OnComplete() {
	close(it.done)
}

func (it *subscriberIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case v := <-it.items:
		return it.pulled(v), true, nil
	default:
	}

	select {
	case v := <-it.items:
		return it.pulled(v), true, nil
	case <-it.done:
		// Items always arrive before the terminal signal.
		select {
		case v := <-it.items:
			return it.pulled(v), true, nil
		default:
		}
		it.mu.Lock()
		defer it.mu.Unlock()
		return zero, false, it.err
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (it *subscriberIter[T]) pulled(v T) T {
	it.consumed++
	if it.consumed >= it.refill {
		it.mu.Lock()
		sub, closed := it.sub, it.closed
		it.mu.Unlock()
		if sub != nil && !closed {
			sub.Request(it.consumed)
		}
		it.consumed = 0
	}
	return v
}

func (it *subscriberIter[T]) Close() error {
	it.mu.Lock()
	if it.closed {
		it.mu.Unlock()
		return nil
	}
	it.closed = true
	sub := it.sub
	it.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	return nil
}
