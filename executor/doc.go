// Package executor provides Loop, a single-goroutine, run-to-completion task
// queue.
//
// Tasks posted from any goroutine run one after another on the loop's own
// goroutine, in posting order, and never preempt each other. State owned by
// a loop therefore needs no locking as long as it is only touched from tasks.
// Nothing running on a loop may block; long work is split into further posts.
//
//	loop := executor.New("consumer")
//	loop.Start(ctx)
//	loop.Post(func() { /* runs on the loop goroutine */ })
//	defer loop.Stop(ctx)
//
// Loop implements component.Component so it can be managed by a
// component.Registry.
package executor
