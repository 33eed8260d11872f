// Package notify carries wakeups from producer goroutines into a consumer's
// executor loop.
//
// A Bridge has exactly one Listener, fixed at construction, and never calls
// it directly: every notification is posted as a task to the listener's
// Poster. Data-available events are coalesced. Any number of NotifyEvent
// calls made before the listener runs collapse into one OnEvent, because the
// listener re-reads the real buffer state instead of counting events.
// NotifyClosed and NotifyAborted are terminal, delivered at most once and
// mutually exclusive; after either, NotifyEvent does nothing.
package notify

import (
	"sync/atomic"
)

// Listener receives notifications on its own executor.
type Listener interface {
	// OnEvent signals that data may be available.
	OnEvent()
	// OnClose signals graceful end of input.
	OnClose()
	// OnAbort signals fatal termination with err.
	OnAbort(err error)
}

// Poster schedules a task on the listener's executor. It returns false if
// the task was not accepted.
type Poster interface {
	Post(task func()) bool
}

const (
	stateOpen int32 = iota
	stateClosed
	stateAborted
)

// Stats counts NotifyEvent traffic.
type Stats struct {
	// Calls is the number of NotifyEvent calls.
	Calls uint64
	// Posted is the number of OnEvent tasks handed to the Poster.
	Posted uint64
	// Coalesced is the number of calls absorbed by an already pending task.
	Coalesced uint64
}

// Bridge is safe for concurrent use by any number of goroutines.
type Bridge struct {
	poster   Poster
	listener Listener

	state   atomic.Int32
	pending atomic.Bool

	calls     atomic.Uint64
	posted    atomic.Uint64
	coalesced atomic.Uint64
}

// NewBridge binds listener to the executor behind poster.
func NewBridge(poster Poster, listener Listener) *Bridge {
	return &Bridge{poster: poster, listener: listener}
}

// NotifyEvent schedules OnEvent unless one is already pending or the bridge
// reached a terminal state. It never blocks and reports whether a task was
// handed to the executor.
func (b *Bridge) NotifyEvent() bool {
	b.calls.Add(1)
	if b.state.Load() != stateOpen {
		return false
	}
	if !b.pending.CompareAndSwap(false, true) {
		b.coalesced.Add(1)
		return false
	}
	if !b.poster.Post(b.deliverEvent) {
		b.pending.Store(false)
		return false
	}
	b.posted.Add(1)
	return true
}

// NotifyClosed schedules OnClose. Only the first terminal call wins; it
// reports whether this call did.
func (b *Bridge) NotifyClosed() bool {
	if !b.state.CompareAndSwap(stateOpen, stateClosed) {
		return false
	}
	b.poster.Post(b.listener.OnClose)
	return true
}

// NotifyAborted schedules OnAbort(err). Only the first terminal call wins; it
// reports whether this call did.
func (b *Bridge) NotifyAborted(err error) bool {
	if !b.state.CompareAndSwap(stateOpen, stateAborted) {
		return false
	}
	b.poster.Post(func() { b.listener.OnAbort(err) })
	return true
}

// Terminated reports whether NotifyClosed or NotifyAborted has fired.
func (b *Bridge) Terminated() bool {
	return b.state.Load() != stateOpen
}

// Stats returns a snapshot of the event counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Calls:     b.calls.Load(),
		Posted:    b.posted.Load(),
		Coalesced: b.coalesced.Load(),
	}
}

// deliverEvent runs on the listener's executor. The pending flag is cleared
// before OnEvent so that a push racing with the listener schedules a new run.
func (b *Bridge) deliverEvent() {
	b.pending.Store(false)
	if b.state.Load() != stateOpen {
		return
	}
	b.listener.OnEvent()
}
