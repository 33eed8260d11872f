// Package pipeline provides composable, pull-based consumers for streams.
//
// Pipelines are lazy: no work happens until values are pulled via Collect,
// Drain or ForEach. Each stage pulls from the previous one on demand.
//
// FromPublisher turns a flow.Publisher into a pipeline. It keeps a bounded
// number of items requested ahead of the consumer and asks for more as
// values are pulled, so a slow pipeline slows the publisher down:
//
//	q, pub, _ := pubqueue.New[Event](pubqueue.Config{Capacity: 256})
//	p := pipeline.FromPublisher(pub, 32)
//	valid := pipeline.Filter(p, func(e Event) bool { return e.Valid() })
//	batches := pipeline.Batch(valid, 100, time.Second)
//	err := pipeline.ForEach(ctx, batches, store.WriteBatch)
//
// Operators:
//
//   - Map: transform each value
//   - Filter: keep values matching a predicate
//   - Tap: side effect without altering the value
//   - Reduce: accumulate all values into one result
//   - Concat: join pipelines sequentially
//   - Batch: group values by count or time
//   - Buffer: decouple stages with a buffered channel
package pipeline
