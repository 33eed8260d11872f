package pipeline

import "context"

// derive builds a pipeline whose iterator wraps the source iterator.
func derive[I, O any](p *Pipeline[I], next func(ctx context.Context, src Iterator[I]) (O, bool, error)) *Pipeline[O] {
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			src := p.create(ctx)
			return &funcIter[O]{
				next:  func(ctx context.Context) (O, bool, error) { return next(ctx, src) },
				close: src.Close,
			}
		},
	}
}

// Map transforms each value using fn. An error from fn ends the pipeline.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return derive(p, func(ctx context.Context, src Iterator[I]) (O, bool, error) {
		var zero O
		val, ok, err := src.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		out, err := fn(ctx, val)
		if err != nil {
			return zero, false, err
		}
		return out, true, nil
	})
}

// Filter keeps only values that satisfy the predicate.
func Filter[T any](p *Pipeline[T], fn func(T) bool) *Pipeline[T] {
	return derive(p, func(ctx context.Context, src Iterator[T]) (T, bool, error) {
		for {
			val, ok, err := src.Next(ctx)
			if err != nil || !ok || fn(val) {
				return val, ok && err == nil, err
			}
		}
	})
}

// Tap calls fn for each value and passes the value through unchanged.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return derive(p, func(ctx context.Context, src Iterator[T]) (T, bool, error) {
		val, ok, err := src.Next(ctx)
		if err != nil || !ok {
			return val, false, err
		}
		if err := fn(ctx, val); err != nil {
			var zero T
			return zero, false, err
		}
		return val, true, nil
	})
}

// Reduce accumulates all values into a single result. The pipeline yields
// exactly one value, the final accumulator, once the source is exhausted.
func Reduce[T, R any](p *Pipeline[T], init R, fn func(R, T) R) *Pipeline[R] {
	return &Pipeline[R]{
		create: func(ctx context.Context) Iterator[R] {
			src := p.create(ctx)
			acc, done := init, false
			return &funcIter[R]{
				next: func(ctx context.Context) (R, bool, error) {
					var zero R
					if done {
						return zero, false, nil
					}
					for {
						val, ok, err := src.Next(ctx)
						if err != nil {
							return zero, false, err
						}
						if !ok {
							done = true
							return acc, true, nil
						}
						acc = fn(acc, val)
					}
				},
				close: src.Close,
			}
		},
	}
}

// Concat joins pipelines sequentially. All values from the first pipeline
// are yielded before the second starts.
func Concat[T any](pipelines ...*Pipeline[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			iters := make([]Iterator[T], len(pipelines))
			for i, p := range pipelines {
				iters[i] = p.create(ctx)
			}
			idx := 0
			return &funcIter[T]{
				next: func(ctx context.Context) (T, bool, error) {
					for idx < len(iters) {
						val, ok, err := iters[idx].Next(ctx)
						if err != nil || ok {
							return val, ok, err
						}
						idx++
					}
					var zero T
					return zero, false, nil
				},
				close: func() error {
					var firstErr error
					for _, it := range iters {
						if err := it.Close(); err != nil && firstErr == nil {
							firstErr = err
						}
					}
					return firstErr
				},
			}
		},
	}
}
