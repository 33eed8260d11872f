package pubqueue

import (
	"context"

	"github.com/kbukum/pubqueue/buffer"
	"github.com/kbukum/pubqueue/executor"
	"github.com/kbukum/pubqueue/flow"
	"github.com/kbukum/pubqueue/logger"
	"github.com/kbukum/pubqueue/notify"
	"github.com/kbukum/pubqueue/observability"
)

// backend is the consumer end. It receives producer notifications on the
// executor and feeds the shared buffer into a flow.Buffered.
type backend[T any] struct {
	name    string
	buf     *buffer.Bounded[T]
	pub     *flow.Buffered[T]
	loop    *executor.Loop
	metrics *observability.QueueMetrics
	log     *logger.Logger
}

var (
	_ notify.Listener  = (*backend[int])(nil)
	_ flow.Source[int] = (*backend[int])(nil)
)

// OnEvent runs when the buffer became non-empty.
func (b *backend[T]) OnEvent() {
	b.pub.TryPush()
}

// OnClose drains what is left, then completes once it is delivered.
func (b *backend[T]) OnClose() {
	b.pub.TryPush()
	b.pub.Shutdown()
}

// OnAbort fails the stream and drops everything still buffered.
func (b *backend[T]) OnAbort(err error) {
	b.pub.Abort(err)
	if n := b.buf.Discard(); n > 0 {
		b.metrics.RecordDiscarded(context.Background(), b.name, n)
		b.log.Debug("discarded buffered items", logger.Fields(logger.FieldBuffered, n))
	}
}

// Pull takes up to n items from the shared buffer. Producers blocked on a
// full buffer are woken by the buffer itself.
func (b *backend[T]) Pull(n int) []T {
	return b.buf.DrainUpTo(n)
}

// Drained reports whether the shared buffer is empty right now.
func (b *backend[T]) Drained() bool {
	return b.buf.IsEmpty()
}

func (b *backend[T]) hooks() flow.Hooks {
	return flow.Hooks{
		OnPulled: func(n int) {
			b.metrics.RecordDelivered(context.Background(), b.name, n)
		},
		OnTransition: b.onTransition,
	}
}

func (b *backend[T]) onTransition(from, to flow.State) {
	if !to.Terminal() {
		return
	}
	b.metrics.RecordTerminated(context.Background(), b.name, to.String())
	fields := logger.Fields(logger.FieldState, to.String())
	if err := b.pub.Err(); err != nil {
		fields[logger.FieldError] = err.Error()
	}
	b.log.Debug("stream terminated", fields)
	// Nothing can be delivered any more. Late subscribers are answered from
	// the recorded terminal signal.
	b.loop.Shutdown()
}
