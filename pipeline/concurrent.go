package pipeline

import "context"

// Buffer runs the upstream stages in their own goroutine, holding up to size
// values ahead of the consumer.
func Buffer[T any](p *Pipeline[T], size int) *Pipeline[T] {
	if size <= 0 {
		size = 1
	}
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			src := p.create(ctx)
			bufCtx, cancel := context.WithCancel(ctx)
			ch := make(chan result[T], size)

			go func() {
				defer close(ch)
				for {
					val, ok, err := src.Next(bufCtx)
					if !ok && err == nil {
						return
					}
					select {
					case ch <- result[T]{val: val, err: err}:
					case <-bufCtx.Done():
						return
					}
					if err != nil {
						return
					}
				}
			}()

			return &funcIter[T]{
				next: func(ctx context.Context) (T, bool, error) {
					var zero T
					select {
					case r, open := <-ch:
						if !open {
							return zero, false, nil
						}
						if r.err != nil {
							return zero, false, r.err
						}
						return r.val, true, nil
					case <-ctx.Done():
						return zero, false, ctx.Err()
					}
				},
				close: func() error {
					cancel()
					return src.Close()
				},
			}
		},
	}
}
