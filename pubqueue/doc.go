// Package pubqueue connects goroutines that produce items to a
// demand-driven stream consumed on a single executor.
//
// New returns two ends. The Queue is the producer handle: any goroutine may
// push into it, blocking (Push) or not (TryPush), and it is closed or
// aborted when production ends. The flow.Publisher is the consumer end: its
// subscribers request items and receive them in push order, followed by
// OnComplete after Close or OnError after Abort.
//
//	q, pub, err := pubqueue.New[string](pubqueue.Config{Capacity: 64})
//	if err != nil {
//		return err
//	}
//	go func() {
//		defer q.Release()
//		for _, line := range lines {
//			if err := q.Push(line); err != nil {
//				return
//			}
//		}
//	}()
//	p := pipeline.FromPublisher(pub, 16)
//
// Items are held in a bounded buffer shared by both ends. Producers wake the
// consumer only when the buffer goes from empty to non-empty, and those
// wake-ups are coalesced, so a burst of pushes costs one hop onto the
// executor. The consumer never takes more items than its subscribers asked
// for; a full buffer is what pushes back on producers.
package pubqueue
