// Package flow is a small demand-driven stream protocol.
//
// A Publisher hands each Subscriber a Subscription through which the
// subscriber requests items. A publisher never emits more OnNext calls than
// were requested, and ends every subscription with exactly one OnError or
// OnComplete.
//
// Buffered is the building block for publishers fed by an external source.
// It owns the delivery buffer, per-subscriber demand and the stream state
// (Active, Draining, Done, Aborted), and calls back into a Source only for
// as many items as subscribers have asked for. All of its work runs on a
// single executor; Subscribe, Request and Cancel may be called from any
// goroutine and hop onto that executor. Subscriber callbacks run on the
// executor goroutine and must not block.
package flow
