// Package buffer provides Bounded, the lock-protected FIFO that sits between
// producer goroutines and the single consumer loop.
//
// Producers append with TryPush (never blocks) or Push (waits on a condition
// variable while the buffer is full). The consumer removes contiguous head
// prefixes with DrainUpTo. Both push variants report the empty to non-empty
// edge, which is the only event worth a cross-goroutine wakeup: the consumer
// always drains until it runs out of items or demand.
//
// The lock guards buffer state only. Callers must never invoke notifications
// or subscriber callbacks while holding it, and no method here does.
package buffer
