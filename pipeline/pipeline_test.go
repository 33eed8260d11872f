package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func intsEqual(a, b []int) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// errIter yields items then fails with err.
type errIter struct {
	items  []int
	err    error
	closed atomic.Bool
}

func (it *errIter) Next(context.Context) (int, bool, error) {
	if len(it.items) == 0 {
		return 0, false, it.err
	}
	v := it.items[0]
	it.items = it.items[1:]
	return v, true, nil
}

func (it *errIter) Close() error {
	it.closed.Store(true)
	return nil
}

func TestFromSlice_Collect(t *testing.T) {
	tests := []struct {
		name string
		in   []int
	}{
		{"values", []int{1, 2, 3}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collect(context.Background(), FromSlice(tt.in))
			if err != nil {
				t.Fatal(err)
			}
			if !intsEqual(got, tt.in) {
				t.Errorf("got %v, want %v", got, tt.in)
			}
		})
	}
}

func TestFromSlice_Rerunnable(t *testing.T) {
	p := FromSlice([]int{1, 2})
	for i := 0; i < 2; i++ {
		got, _ := Collect(context.Background(), p)
		if len(got) != 2 {
			t.Fatalf("run %d: expected 2 values, got %v", i, got)
		}
	}
}

func TestFrom_ClosesIterator(t *testing.T) {
	it := &errIter{items: []int{1}}
	got, err := Collect(context.Background(), From[int](it))
	if err != nil || len(got) != 1 {
		t.Fatalf("unexpected result %v, %v", got, err)
	}
	if !it.closed.Load() {
		t.Error("expected iterator to be closed")
	}
}

func TestCollect_ReturnsPartialOnError(t *testing.T) {
	boom := errors.New("boom")
	got, err := Collect(context.Background(), From[int](&errIter{items: []int{1, 2}, err: boom}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !intsEqual(got, []int{1, 2}) {
		t.Errorf("expected partial values, got %v", got)
	}
}

func TestMapFilterTap(t *testing.T) {
	var tapped []string
	p := Map(FromSlice([]int{1, 2, 3, 4, 5, 6}), func(_ context.Context, n int) (int, error) {
		return n * 10, nil
	})
	p = Filter(p, func(n int) bool { return n%20 == 0 })
	s := Map(p, func(_ context.Context, n int) (string, error) { return strconv.Itoa(n), nil })
	s = Tap(s, func(_ context.Context, v string) error {
		tapped = append(tapped, v)
		return nil
	})

	got, err := Collect(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(got) != "[20 40 60]" {
		t.Errorf("got %v", got)
	}
	if fmt.Sprint(tapped) != fmt.Sprint(got) {
		t.Errorf("tap saw %v", tapped)
	}
}

func TestOperatorErrorsStopThePipeline(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		p    *Pipeline[int]
	}{
		{"map", Map(FromSlice([]int{1, 2}), func(_ context.Context, n int) (int, error) {
			if n == 2 {
				return 0, boom
			}
			return n, nil
		})},
		{"tap", Tap(FromSlice([]int{1, 2}), func(_ context.Context, n int) error {
			if n == 2 {
				return boom
			}
			return nil
		})},
		{"source", Filter(From[int](&errIter{items: []int{1}, err: boom}), func(int) bool { return true })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collect(context.Background(), tt.p)
			if !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}
			if !intsEqual(got, []int{1}) {
				t.Errorf("expected [1] before the error, got %v", got)
			}
		})
	}
}

func TestReduce(t *testing.T) {
	sum := Reduce(FromSlice([]int{1, 2, 3, 4}), 0, func(acc, n int) int { return acc + n })
	got, err := Collect(context.Background(), sum)
	if err != nil {
		t.Fatal(err)
	}
	if !intsEqual(got, []int{10}) {
		t.Errorf("expected [10], got %v", got)
	}

	empty := Reduce(FromSlice[int](nil), 7, func(acc, n int) int { return acc + n })
	if got, _ := Collect(context.Background(), empty); !intsEqual(got, []int{7}) {
		t.Errorf("expected the initial value, got %v", got)
	}
}

func TestConcat(t *testing.T) {
	a := &errIter{items: []int{1, 2}}
	b := &errIter{items: []int{3}}
	got, err := Collect(context.Background(), Concat(From[int](a), FromSlice([]int{}), From[int](b)))
	if err != nil {
		t.Fatal(err)
	}
	if !intsEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v", got)
	}
	if !a.closed.Load() || !b.closed.Load() {
		t.Error("expected every iterator to be closed")
	}
}

func TestBatch(t *testing.T) {
	tests := []struct {
		name string
		size int
		in   []int
		want string
	}{
		{"exact", 2, []int{1, 2, 3, 4}, "[[1 2] [3 4]]"},
		{"remainder", 3, []int{1, 2, 3, 4}, "[[1 2 3] [4]]"},
		{"empty", 3, nil, "[]"},
		{"default size", 0, []int{1, 2}, "[[1] [2]]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collect(context.Background(), Batch(FromSlice(tt.in), tt.size, 0))
			if err != nil {
				t.Fatal(err)
			}
			if fmt.Sprint(got) != tt.want {
				t.Errorf("got %v, want %s", got, tt.want)
			}
		})
	}
}

func TestBatch_Timeout(t *testing.T) {
	slow := Tap(FromSlice([]int{1, 2, 3}), func(context.Context, int) error {
		time.Sleep(15 * time.Millisecond)
		return nil
	})
	got, err := Collect(context.Background(), Batch(slow, 100, 10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) < 2 {
		t.Errorf("expected the timeout to split batches, got %v", got)
	}
	total := 0
	for _, b := range got {
		total += len(b)
	}
	if total != 3 {
		t.Errorf("expected 3 values overall, got %v", got)
	}
}

func TestBatch_ErrorAfterPartial(t *testing.T) {
	boom := errors.New("boom")
	it := Batch(From[int](&errIter{items: []int{1}, err: boom}), 5, 0).Iter(context.Background())
	defer it.Close()

	b, ok, err := it.Next(context.Background())
	if err != nil || !ok || !intsEqual(b, []int{1}) {
		t.Fatalf("expected partial batch, got %v %v %v", b, ok, err)
	}
	if _, _, err := it.Next(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected boom after partial batch, got %v", err)
	}
	if _, ok, err := it.Next(context.Background()); ok || err != nil {
		t.Errorf("expected exhausted iterator, got %v %v", ok, err)
	}
}

func TestBuffer(t *testing.T) {
	in := make([]int, 100)
	for i := range in {
		in[i] = i
	}
	got, err := Collect(context.Background(), Buffer(FromSlice(in), 8))
	if err != nil {
		t.Fatal(err)
	}
	if !intsEqual(got, in) {
		t.Errorf("order not preserved: %v", got)
	}

	boom := errors.New("boom")
	got, err = Collect(context.Background(), Buffer(From[int](&errIter{items: []int{1}, err: boom}), 0))
	if !errors.Is(err, boom) || !intsEqual(got, []int{1}) {
		t.Errorf("expected [1] then boom, got %v %v", got, err)
	}
}

func TestBuffer_ContextCancel(t *testing.T) {
	block := FromFunc(func(context.Context) Iterator[int] {
		return &funcIter[int]{next: func(ctx context.Context) (int, bool, error) {
			<-ctx.Done()
			return 0, false, ctx.Err()
		}}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Collect(ctx, Buffer(block, 1))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestDrain_SinkError(t *testing.T) {
	boom := errors.New("sink")
	var seen int
	err := Drain(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		seen++
		if n == 2 {
			return boom
		}
		return nil
	}).Run(context.Background())
	if !errors.Is(err, boom) || seen != 2 {
		t.Errorf("expected sink error after 2 values, got %v (%d)", err, seen)
	}
}
