package flow

import (
	"sync/atomic"

	"github.com/kbukum/pubqueue/errors"
	"github.com/kbukum/pubqueue/logger"
)

// Buffered is a Publisher that pulls from a Source on behalf of its
// subscribers. Every item is emitted to every current subscriber, paced by
// the subscriber with the least outstanding demand. Items are only pulled
// from the source when that demand is positive.
//
// Subscribe is safe from any goroutine. All other exported methods must be
// called from the executor passed to NewBuffered.
type Buffered[T any] struct {
	exec Executor
	src  Source[T]
	opts options

	buf     []T
	outputs []*output[T]
	state   State
	err     error
	resume  bool

	// terminal is published once the stream ends so that subscribers
	// arriving after the executor exited still get the final signal.
	terminal atomic.Pointer[terminal]
}

type terminal struct {
	err error
}

var _ Publisher[int] = (*Buffered[int])(nil)

// NewBuffered creates an Active publisher draining src on exec.
func NewBuffered[T any](exec Executor, src Source[T], opts ...Option) *Buffered[T] {
	o := options{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.WithComponent("flow")
	}
	return &Buffered[T]{
		exec: exec,
		src:  src,
		opts: o,
		buf:  make([]T, 0, o.batchSize),
	}
}

// Subscribe attaches s. Subscribers arriving after the stream ended get
// OnSubscribe followed directly by the terminal signal.
func (b *Buffered[T]) Subscribe(s Subscriber[T]) {
	if b.exec.Post(func() { b.attach(s) }) {
		return
	}
	if t := b.terminal.Load(); t != nil {
		signalTerminal(s, t)
		return
	}
	s.OnSubscribe(noopSubscription{})
	s.OnError(errors.ExecutorStopped("flow"))
}

// TryPush emits buffered items against current demand, pulls at most one
// batch from the source and completes a draining stream once nothing is
// left. When the pull filled the whole batch, a follow-up run is posted
// instead of looping, so a busy source cannot monopolize the executor.
func (b *Buffered[T]) TryPush() {
	if b.state.Terminal() {
		return
	}
	b.deliver()
	if want := b.pullAmount(); want > 0 {
		items := b.src.Pull(want)
		if n := len(items); n > 0 {
			b.buf = append(b.buf, items...)
			if b.opts.hooks.OnPulled != nil {
				b.opts.hooks.OnPulled(n)
			}
			b.deliver()
		}
		if len(items) == want {
			b.scheduleResume()
		}
	}
	b.checkCompletion()
}

// Shutdown marks upstream as closed. Remaining items are still delivered;
// the stream completes once both the delivery buffer and the source are
// empty.
func (b *Buffered[T]) Shutdown() {
	if b.state != Active {
		return
	}
	b.transition(Draining)
	b.TryPush()
}

// Abort ends the stream with err, discarding undelivered items. err is
// passed to subscribers unchanged; a nil err is replaced by an ABORTED
// AppError so subscribers still see OnError. It has no effect on a
// terminated stream.
func (b *Buffered[T]) Abort(err error) {
	if b.state.Terminal() {
		return
	}
	if err == nil {
		err = errors.Aborted("stream aborted without a reason", nil)
	}
	if dropped := len(b.buf); dropped > 0 {
		b.opts.log.Debug("discarding undelivered items", logger.Fields(logger.FieldBuffered, dropped))
	}
	b.buf = nil
	b.err = err
	b.terminate(Aborted, err)
}

// Done reports whether the stream completed and the source is empty.
func (b *Buffered[T]) Done() bool {
	return b.state == Done && b.src.Drained()
}

// State returns the current state.
func (b *Buffered[T]) State() State { return b.state }

// Err returns the abort reason, or nil.
func (b *Buffered[T]) Err() error { return b.err }

// Subscribers returns the number of attached subscribers.
func (b *Buffered[T]) Subscribers() int { return len(b.outputs) }

// Buffered returns the number of pulled items not yet emitted.
func (b *Buffered[T]) Buffered() int { return len(b.buf) }

func (b *Buffered[T]) attach(s Subscriber[T]) {
	if b.state.Terminal() {
		signalTerminal(s, b.terminal.Load())
		return
	}
	o := &output[T]{parent: b, sub: s}
	b.outputs = append(b.outputs, o)
	s.OnSubscribe(o)
}

func (b *Buffered[T]) onRequest(o *output[T], n int) {
	if o.closed {
		return
	}
	if n <= 0 {
		b.drop(o)
		o.sub.OnError(errors.InvalidDemand(n))
		b.TryPush()
		return
	}
	if o.demand > Unbounded-n {
		o.demand = Unbounded
	} else {
		o.demand += n
	}
	b.TryPush()
}

func (b *Buffered[T]) onCancel(o *output[T]) {
	if o.closed {
		return
	}
	b.drop(o)
	// The slowest subscriber may have left.
	b.TryPush()
}

func (b *Buffered[T]) drop(o *output[T]) {
	o.closed = true
	for i, x := range b.outputs {
		if x == o {
			b.outputs = append(b.outputs[:i], b.outputs[i+1:]...)
			return
		}
	}
}

func (b *Buffered[T]) minDemand() int {
	if len(b.outputs) == 0 {
		return 0
	}
	d := b.outputs[0].demand
	for _, o := range b.outputs[1:] {
		d = min(d, o.demand)
	}
	return d
}

func (b *Buffered[T]) pullAmount() int {
	want := min(b.minDemand(), b.opts.batchSize) - len(b.buf)
	return max(want, 0)
}

func (b *Buffered[T]) deliver() {
	k := min(len(b.buf), b.minDemand())
	if k == 0 {
		return
	}
	for _, v := range b.buf[:k] {
		for _, o := range b.outputs {
			o.demand--
			o.sub.OnNext(v)
		}
	}
	rest := copy(b.buf, b.buf[k:])
	clear(b.buf[rest:])
	b.buf = b.buf[:rest]

	if b.opts.hooks.OnDelivered != nil {
		b.opts.hooks.OnDelivered(k)
	}
}

func (b *Buffered[T]) checkCompletion() {
	if b.state == Draining && len(b.buf) == 0 && b.src.Drained() {
		b.terminate(Done, nil)
	}
}

func (b *Buffered[T]) scheduleResume() {
	if b.resume {
		return
	}
	b.resume = b.exec.Post(func() {
		b.resume = false
		b.TryPush()
	})
}

// terminate records the final signal before running hooks, which may stop
// the executor, and only then notifies subscribers.
func (b *Buffered[T]) terminate(to State, err error) {
	t := &terminal{err: err}
	b.terminal.Store(t)

	from := b.state
	b.state = to
	b.notifyTransition(from, to)

	outs := b.outputs
	b.outputs = nil
	for _, o := range outs {
		o.closed = true
		if err != nil {
			o.sub.OnError(err)
		} else {
			o.sub.OnComplete()
		}
	}
}

func (b *Buffered[T]) transition(to State) {
	from := b.state
	b.state = to
	b.notifyTransition(from, to)
}

func (b *Buffered[T]) notifyTransition(from, to State) {
	b.opts.log.Debug("state changed", logger.Fields("from", from.String(), "to", to.String()))
	if b.opts.hooks.OnTransition != nil {
		b.opts.hooks.OnTransition(from, to)
	}
}

// output is one subscriber's view of a Buffered and its Subscription.
type output[T any] struct {
	parent *Buffered[T]
	sub    Subscriber[T]
	demand int
	closed bool
}

// Request implements Subscription.
func (o *output[T]) Request(n int) {
	p := o.parent
	p.exec.Post(func() { p.onRequest(o, n) })
}

// Cancel implements Subscription.
func (o *output[T]) Cancel() {
	p := o.parent
	p.exec.Post(func() { p.onCancel(o) })
}

func signalTerminal[T any](s Subscriber[T], t *terminal) {
	s.OnSubscribe(noopSubscription{})
	if t.err != nil {
		s.OnError(t.err)
		return
	}
	s.OnComplete()
}
