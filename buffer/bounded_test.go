package buffer

import (
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/pubqueue/errors"
)

func mustNew[T any](t *testing.T, capacity int) *Bounded[T] {
	t.Helper()
	b, err := New[T](capacity)
	if err != nil {
		t.Fatalf("New(%d): %v", capacity, err)
	}
	return b
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNew_RejectsNonPositiveCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		_, err := New[int](c)
		if err == nil {
			t.Fatalf("expected error for capacity %d", c)
		}
		if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
			t.Errorf("expected INVALID_INPUT, got %v", err)
		}
	}
}

func TestTryPush_ReportsEmptyEdge(t *testing.T) {
	b := mustNew[string](t, 3)

	accepted, wasEmpty := b.TryPush("a")
	if !accepted || !wasEmpty {
		t.Fatalf("first push: accepted=%v wasEmpty=%v, want true/true", accepted, wasEmpty)
	}
	accepted, wasEmpty = b.TryPush("b")
	if !accepted || wasEmpty {
		t.Fatalf("second push: accepted=%v wasEmpty=%v, want true/false", accepted, wasEmpty)
	}

	b.DrainUpTo(2)
	_, wasEmpty = b.TryPush("c")
	if !wasEmpty {
		t.Error("push after full drain should report the empty edge again")
	}
}

func TestTryPush_FailsExactlyAtCapacity(t *testing.T) {
	b := mustNew[int](t, 4)
	for i := 0; i < 4; i++ {
		if ok, _ := b.TryPush(i); !ok {
			t.Fatalf("push %d rejected with len=%d", i, b.Len())
		}
		if b.Len() > b.Cap() {
			t.Fatalf("len %d exceeds cap %d", b.Len(), b.Cap())
		}
	}
	if ok, _ := b.TryPush(99); ok {
		t.Fatal("push into full buffer must fail")
	}
	if b.Len() != 4 {
		t.Errorf("expected len 4, got %d", b.Len())
	}
}

func TestDrainUpTo_PreservesOrder(t *testing.T) {
	b := mustNew[int](t, 5)
	for i := 1; i <= 5; i++ {
		b.TryPush(i)
	}

	got := b.DrainUpTo(2)
	want := []int{1, 2}
	if !equal(got, want) {
		t.Fatalf("first drain got %v, want %v", got, want)
	}
	got = b.DrainUpTo(10)
	want = []int{3, 4, 5}
	if !equal(got, want) {
		t.Fatalf("second drain got %v, want %v", got, want)
	}
	if got := b.DrainUpTo(1); got != nil {
		t.Errorf("drain of empty buffer got %v, want nil", got)
	}
	if got := b.DrainUpTo(0); got != nil {
		t.Errorf("drain of 0 got %v, want nil", got)
	}
}

func TestPush_BlocksUntilDrain(t *testing.T) {
	b := mustNew[string](t, 2)
	b.TryPush("A")
	b.TryPush("B")

	var returned atomic.Bool
	done := make(chan error, 1)
	go func() {
		_, err := b.Push("C")
		returned.Store(true)
		done <- err
	}()

	waitFor(t, "blocked pusher", func() bool { return b.Waiting() == 1 })
	if returned.Load() {
		t.Fatal("Push returned while the buffer was full")
	}

	if got := b.DrainUpTo(1); !equal(got, []string{"A"}) {
		t.Fatalf("drain got %v, want [A]", got)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Push did not return after drain freed a slot")
	}

	if got := b.DrainUpTo(10); !equal(got, []string{"B", "C"}) {
		t.Errorf("remaining items %v, want [B C]", got)
	}
}

func TestPush_BroadcastWakesAllWaiters(t *testing.T) {
	b := mustNew[int](t, 3)
	for i := 0; i < 3; i++ {
		b.TryPush(i)
	}

	const producers = 3
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if _, err := b.Push(100 + v); err != nil {
				t.Errorf("push %d: %v", v, err)
			}
		}(i)
	}
	waitFor(t, "all pushers blocked", func() bool { return b.Waiting() == producers })

	// One drain frees every slot; all blocked producers must get in.
	b.DrainUpTo(3)
	wg.Wait()

	if b.Len() != producers {
		t.Fatalf("expected %d items after wake, got %d", producers, b.Len())
	}
}

func TestPush_ReleasedByClose(t *testing.T) {
	b := mustNew[int](t, 1)
	b.TryPush(1)

	done := make(chan error, 1)
	go func() {
		_, err := b.Push(2)
		done <- err
	}()
	waitFor(t, "blocked pusher", func() bool { return b.Waiting() == 1 })

	if !b.Close() {
		t.Fatal("first Close should return true")
	}
	if b.Close() {
		t.Error("second Close should return false")
	}

	select {
	case err := <-done:
		if !stderrors.Is(err, errors.ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not release the blocked pusher")
	}

	// Stored items survive close.
	if got := b.DrainUpTo(5); !equal(got, []int{1}) {
		t.Errorf("expected [1] after close, got %v", got)
	}
}

func TestClosed_RejectsPushes(t *testing.T) {
	b := mustNew[int](t, 2)
	b.Close()

	if ok, _ := b.TryPush(1); ok {
		t.Error("TryPush into closed buffer must fail")
	}
	if _, err := b.Push(1); !stderrors.Is(err, errors.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if !b.Closed() {
		t.Error("Closed() should be true")
	}
}

func TestDiscard(t *testing.T) {
	b := mustNew[int](t, 2)
	b.TryPush(1)
	b.TryPush(2)

	done := make(chan struct{})
	go func() {
		b.Push(3)
		close(done)
	}()
	waitFor(t, "blocked pusher", func() bool { return b.Waiting() == 1 })

	if n := b.Discard(); n != 2 {
		t.Fatalf("expected 2 discarded, got %d", n)
	}
	<-done
	if got := b.DrainUpTo(5); !equal(got, []int{3}) {
		t.Errorf("expected [3], got %v", got)
	}
	if n := b.Discard(); n != 0 {
		t.Errorf("expected nothing to discard, got %d", n)
	}
}

func TestConcurrentProducers_NoLossNoDuplication(t *testing.T) {
	const (
		producers = 8
		perProd   = 500
	)
	b := mustNew[int](t, 16)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProd; i++ {
				if _, err := b.Push(p*perProd + i); err != nil {
					t.Errorf("push: %v", err)
					return
				}
			}
		}(p)
	}

	seen := make(map[int]bool, producers*perProd)
	lastPerProducer := make(map[int]int)
	for len(seen) < producers*perProd {
		if n := b.Len(); n > b.Cap() {
			t.Fatalf("len %d exceeds cap %d", n, b.Cap())
		}
		for _, v := range b.DrainUpTo(5) {
			if seen[v] {
				t.Fatalf("value %d delivered twice", v)
			}
			seen[v] = true
			// Each producer's own values must come out in push order.
			p := v / perProd
			if last, ok := lastPerProducer[p]; ok && v <= last {
				t.Fatalf("producer %d out of order: %d after %d", p, v, last)
			}
			lastPerProducer[p] = v
		}
	}
	wg.Wait()
}

func equal[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
