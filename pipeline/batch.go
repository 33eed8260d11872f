package pipeline

import (
	"context"
	"time"
)

// Batch groups up to size values into a slice. When timeout is positive, a
// batch is also emitted once timeout has passed since its first value, as
// soon as the next value arrives. size <= 0 means batches are bounded only
// by time; if timeout is also unset, size defaults to 1.
//
// An error from the source is reported after the partial batch before it.
func Batch[T any](p *Pipeline[T], size int, timeout time.Duration) *Pipeline[[]T] {
	if size <= 0 && timeout <= 0 {
		size = 1
	}
	return &Pipeline[[]T]{
		create: func(ctx context.Context) Iterator[[]T] {
			src := p.create(ctx)
			var (
				done    bool
				pending error
			)
			return &funcIter[[]T]{
				next: func(ctx context.Context) ([]T, bool, error) {
					if pending != nil {
						err := pending
						pending, done = nil, true
						return nil, false, err
					}
					if done {
						return nil, false, nil
					}

					var (
						batch    []T
						deadline time.Time
					)
					for size <= 0 || len(batch) < size {
						val, ok, err := src.Next(ctx)
						if err != nil {
							if len(batch) == 0 {
								done = true
								return nil, false, err
							}
							pending = err
							return batch, true, nil
						}
						if !ok {
							done = true
							return batch, len(batch) > 0, nil
						}
						if len(batch) == 0 && timeout > 0 {
							deadline = time.Now().Add(timeout)
						}
						batch = append(batch, val)
						if timeout > 0 && !time.Now().Before(deadline) {
							break
						}
					}
					return batch, true, nil
				},
				close: src.Close,
			}
		},
	}
}
