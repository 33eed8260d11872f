package pubqueue

import (
	"context"
	"sync/atomic"

	"github.com/kbukum/pubqueue/buffer"
	"github.com/kbukum/pubqueue/errors"
	"github.com/kbukum/pubqueue/logger"
	"github.com/kbukum/pubqueue/notify"
	"github.com/kbukum/pubqueue/observability"
)

// Queue is the producer handle. All methods are safe for concurrent use.
//
// A Queue can be shared between goroutines directly or through Clone. Each
// clone is released independently; releasing the last one closes the queue.
type Queue[T any] struct {
	s        *shared[T]
	released atomic.Bool
}

// shared is the state common to a queue and its clones.
type shared[T any] struct {
	name    string
	buf     *buffer.Bounded[T]
	bridge  *notify.Bridge
	metrics *observability.QueueMetrics
	log     *logger.Logger
	refs    atomic.Int64
}

// TryPush adds v if there is room and reports whether it did. It never
// blocks.
func (q *Queue[T]) TryPush(v T) bool {
	s := q.s
	accepted, wasEmpty := s.buf.TryPush(v)
	if !accepted {
		reason := "full"
		if s.buf.Closed() {
			reason = "closed"
		}
		s.metrics.RecordReject(context.Background(), s.name, reason)
		return false
	}
	s.accepted(wasEmpty)
	return true
}

// Push adds v, waiting for room while the buffer is full. There is no
// timeout. It returns an error matching errors.ErrClosed once the queue was
// closed or aborted, including when that happens while Push waits.
func (q *Queue[T]) Push(v T) error {
	s := q.s
	ctx := context.Background()
	if accepted, wasEmpty := s.buf.TryPush(v); accepted {
		s.accepted(wasEmpty)
		return nil
	}
	if s.buf.Closed() {
		s.metrics.RecordReject(ctx, s.name, "closed")
		return errors.Closed("queue").WithDetail("queue", s.name)
	}

	// Full: wait for room.
	s.metrics.RecordBlocked(ctx, s.name, 1)
	wasEmpty, err := s.buf.Push(v)
	s.metrics.RecordBlocked(ctx, s.name, -1)
	if err != nil {
		s.metrics.RecordReject(ctx, s.name, "closed")
		return err
	}
	s.accepted(wasEmpty)
	return nil
}

// Close ends production gracefully. Items already pushed are still
// delivered, then subscribers see OnComplete. Blocked and later pushes fail
// with errors.ErrClosed. Close after Close or Abort has no effect.
func (q *Queue[T]) Close() {
	q.s.close()
}

// Abort ends production with err. Items not yet delivered are discarded and
// subscribers, including later ones, see OnError(err) with err unchanged.
// A nil err is replaced by an ABORTED AppError. Abort after Close or Abort
// has no effect on subscribers.
func (q *Queue[T]) Abort(err error) {
	s := q.s
	if err == nil {
		err = errors.Aborted("queue aborted without a reason", nil)
	}
	s.buf.Close()
	if s.bridge.NotifyAborted(err) {
		s.log.Warn("queue aborted", logger.Fields(
			logger.FieldError, err.Error(),
			logger.FieldBuffered, s.buf.Len(),
		))
	}
}

// Clone returns another handle to the same queue.
func (q *Queue[T]) Clone() *Queue[T] {
	q.s.refs.Add(1)
	return &Queue[T]{s: q.s}
}

// Release drops this handle. Releasing the last handle closes the queue.
// Calling Release twice on the same handle has no further effect.
func (q *Queue[T]) Release() {
	if !q.released.CompareAndSwap(false, true) {
		return
	}
	if q.s.refs.Add(-1) == 0 {
		q.s.close()
	}
}

// Name returns the queue name.
func (q *Queue[T]) Name() string { return q.s.name }

// Len returns the number of items in the shared buffer.
func (q *Queue[T]) Len() int { return q.s.buf.Len() }

// Cap returns the buffer capacity.
func (q *Queue[T]) Cap() int { return q.s.buf.Cap() }

// Closed reports whether the queue stopped accepting items.
func (q *Queue[T]) Closed() bool { return q.s.buf.Closed() }

// Waiting returns the number of producers blocked in Push.
func (q *Queue[T]) Waiting() int { return q.s.buf.Waiting() }

// Stats returns the consumer wake-up counters.
func (q *Queue[T]) Stats() notify.Stats { return q.s.bridge.Stats() }

func (s *shared[T]) accepted(wasEmpty bool) {
	ctx := context.Background()
	s.metrics.RecordPush(ctx, s.name)
	// Only the empty to non-empty edge wakes the consumer. While items are
	// pending it keeps pulling on its own as demand arrives.
	if wasEmpty && s.bridge.NotifyEvent() {
		s.metrics.RecordNotification(ctx, s.name)
	}
}

func (s *shared[T]) close() {
	s.buf.Close()
	if s.bridge.NotifyClosed() {
		s.log.Info("queue closed", logger.Fields(logger.FieldBuffered, s.buf.Len()))
	}
}
