package flow

import (
	"fmt"
	"math"
)

// Unbounded requests every item the publisher will ever produce.
const Unbounded = math.MaxInt

// DefaultBatchSize caps how many items a Buffered pulls from its source at once.
const DefaultBatchSize = 32

// Subscription links one Subscriber to one Publisher.
type Subscription interface {
	// Request adds n to the subscriber's outstanding demand. n must be
	// positive; a non-positive n terminates the subscription with an
	// INVALID_DEMAND error.
	Request(n int)
	// Cancel ends the subscription. No further signals are delivered
	// once the cancellation has been processed.
	Cancel()
}

// Subscriber consumes a stream. Calls arrive serially.
type Subscriber[T any] interface {
	OnSubscribe(s Subscription)
	OnNext(v T)
	OnError(err error)
	OnComplete()
}

// Publisher produces a stream for any number of subscribers.
type Publisher[T any] interface {
	Subscribe(s Subscriber[T])
}

// Executor runs tasks serially. Post returns false if the task was refused.
type Executor interface {
	Post(task func()) bool
}

// Source is the upstream a Buffered drains. Both methods are only called
// from the Buffered's executor.
type Source[T any] interface {
	// Pull removes and returns at most n items (n > 0) in FIFO order.
	Pull(n int) []T
	// Drained reports whether the source currently holds no items.
	Drained() bool
}

// State is the lifecycle stage of a Buffered.
type State int

const (
	// Active accepts demand and pulls from the source.
	Active State = iota
	// Draining means upstream closed; remaining items are still delivered.
	Draining
	// Done means upstream closed and every item has been delivered.
	Done
	// Aborted means the stream failed; undelivered items were discarded.
	Aborted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Draining:
		return "draining"
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == Done || s == Aborted
}
