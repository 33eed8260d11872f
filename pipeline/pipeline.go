package pipeline

import "context"

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Pipeline is a lazy, pull-based data pipeline. Every run creates its own
// iterator chain.
type Pipeline[T any] struct {
	create func(ctx context.Context) Iterator[T]
}

// Runnable is a fully configured pipeline ready to execute.
type Runnable struct {
	run func(ctx context.Context) error
}

// Run executes the pipeline until completion, error or context cancellation.
func (r *Runnable) Run(ctx context.Context) error {
	return r.run(ctx)
}

// From creates a pipeline from an existing Iterator. The iterator can only
// be consumed once.
func From[T any](iter Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(context.Context) Iterator[T] { return iter },
	}
}

// FromSlice creates a pipeline from a slice of values.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(context.Context) Iterator[T] {
			i := 0
			return &funcIter[T]{
				next: func(context.Context) (T, bool, error) {
					if i >= len(items) {
						var zero T
						return zero, false, nil
					}
					i++
					return items[i-1], true, nil
				},
			}
		},
	}
}

// FromFunc creates a pipeline from a factory that produces an Iterator.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{create: fn}
}

// Iter returns the raw Iterator for this pipeline. The caller must Close it.
func (p *Pipeline[T]) Iter(ctx context.Context) Iterator[T] {
	return p.create(ctx)
}

// Drain creates a Runnable that pulls all values and sends each to sink.
func Drain[T any](p *Pipeline[T], sink func(context.Context, T) error) *Runnable {
	return &Runnable{
		run: func(ctx context.Context) error {
			iter := p.create(ctx)
			defer iter.Close()
			for {
				val, ok, err := iter.Next(ctx)
				if err != nil || !ok {
					return err
				}
				if err := sink(ctx, val); err != nil {
					return err
				}
			}
		},
	}
}

// Collect runs the pipeline and returns all values. On error the values
// pulled so far are returned with it.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	var out []T
	err := ForEach(ctx, p, func(_ context.Context, v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// ForEach pulls all values and calls fn for each.
func ForEach[T any](ctx context.Context, p *Pipeline[T], fn func(context.Context, T) error) error {
	return Drain(p, fn).Run(ctx)
}

// funcIter adapts closures to Iterator.
type funcIter[T any] struct {
	next  func(ctx context.Context) (T, bool, error)
	close func() error
}

func (it *funcIter[T]) Next(ctx context.Context) (T, bool, error) { return it.next(ctx) }

func (it *funcIter[T]) Close() error {
	if it.close != nil {
		return it.close()
	}
	return nil
}

// result carries a value or error through a channel.
type result[T any] struct {
	val T
	err error
}
