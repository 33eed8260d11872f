package notify

import (
	stderrors "errors"
	"sync"
	"testing"
)

// manualPoster queues tasks until the test runs them, standing in for a loop
// that has not been scheduled yet.
type manualPoster struct {
	mu     sync.Mutex
	tasks  []func()
	reject bool
}

func (p *manualPoster) Post(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject {
		return false
	}
	p.tasks = append(p.tasks, task)
	return true
}

func (p *manualPoster) runAll() int {
	p.mu.Lock()
	tasks := p.tasks
	p.tasks = nil
	p.mu.Unlock()
	for _, task := range tasks {
		task()
	}
	return len(tasks)
}

func (p *manualPoster) pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

type countingListener struct {
	events int
	closes int
	aborts []error
	order  []string
}

func (l *countingListener) OnEvent() {
	l.events++
	l.order = append(l.order, "event")
}

func (l *countingListener) OnClose() {
	l.closes++
	l.order = append(l.order, "close")
}

func (l *countingListener) OnAbort(err error) {
	l.aborts = append(l.aborts, err)
	l.order = append(l.order, "abort")
}

func TestBridge_NeverCallsListenerSynchronously(t *testing.T) {
	p := &manualPoster{}
	l := &countingListener{}
	b := NewBridge(p, l)

	b.NotifyEvent()
	b.NotifyClosed()
	if len(l.order) != 0 {
		t.Fatalf("listener ran on the caller's goroutine: %v", l.order)
	}
	p.runAll()
	if l.events != 1 || l.closes != 1 {
		t.Errorf("expected 1 event and 1 close, got %d/%d", l.events, l.closes)
	}
}

func TestBridge_CoalescesConcurrentEvents(t *testing.T) {
	p := &manualPoster{}
	l := &countingListener{}
	b := NewBridge(p, l)

	const callers = 64
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.NotifyEvent()
		}()
	}
	wg.Wait()

	if n := p.pending(); n != 1 {
		t.Fatalf("expected 1 posted task, got %d", n)
	}
	p.runAll()
	if l.events != 1 {
		t.Errorf("expected 1 OnEvent, got %d", l.events)
	}

	s := b.Stats()
	if s.Calls != callers || s.Posted != 1 || s.Coalesced != callers-1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestBridge_EventAfterDeliveryPostsAgain(t *testing.T) {
	p := &manualPoster{}
	l := &countingListener{}
	b := NewBridge(p, l)

	b.NotifyEvent()
	p.runAll()
	b.NotifyEvent()
	p.runAll()
	if l.events != 2 {
		t.Errorf("expected 2 OnEvent after separate deliveries, got %d", l.events)
	}
}

func TestBridge_TerminalIsExclusiveAndOnce(t *testing.T) {
	p := &manualPoster{}
	l := &countingListener{}
	b := NewBridge(p, l)

	if !b.NotifyClosed() {
		t.Fatal("first NotifyClosed should win")
	}
	if b.NotifyClosed() {
		t.Error("second NotifyClosed should lose")
	}
	if b.NotifyAborted(stderrors.New("late")) {
		t.Error("NotifyAborted after close should lose")
	}
	b.NotifyEvent()
	p.runAll()

	if l.closes != 1 || len(l.aborts) != 0 || l.events != 0 {
		t.Errorf("expected only one close, got %v", l.order)
	}
	if !b.Terminated() {
		t.Error("expected Terminated after close")
	}
}

func TestBridge_AbortCarriesError(t *testing.T) {
	p := &manualPoster{}
	l := &countingListener{}
	b := NewBridge(p, l)

	reason := stderrors.New("upstream failed")
	if !b.NotifyAborted(reason) {
		t.Fatal("NotifyAborted should win")
	}
	if b.NotifyClosed() {
		t.Error("NotifyClosed after abort should lose")
	}
	p.runAll()
	if len(l.aborts) != 1 || l.aborts[0] != reason {
		t.Errorf("expected abort with original error, got %v", l.aborts)
	}
}

func TestBridge_PendingEventSuppressedByTerminal(t *testing.T) {
	p := &manualPoster{}
	l := &countingListener{}
	b := NewBridge(p, l)

	b.NotifyEvent()
	b.NotifyAborted(stderrors.New("x"))
	p.runAll()

	if l.events != 0 {
		t.Errorf("data event must not fire after abort, got %v", l.order)
	}
	if len(l.aborts) != 1 {
		t.Errorf("expected abort delivery, got %v", l.order)
	}
}

func TestBridge_RejectedPostClearsPending(t *testing.T) {
	p := &manualPoster{reject: true}
	l := &countingListener{}
	b := NewBridge(p, l)

	b.NotifyEvent()
	p.mu.Lock()
	p.reject = false
	p.mu.Unlock()

	b.NotifyEvent()
	if p.runAll() != 1 {
		t.Fatal("expected the second event to be posted after a rejected post")
	}
	if l.events != 1 {
		t.Errorf("expected 1 OnEvent, got %d", l.events)
	}
}

func TestBridge_NotifyEventReportsPost(t *testing.T) {
	p := &manualPoster{}
	b := NewBridge(p, &countingListener{})

	if !b.NotifyEvent() {
		t.Error("first event should be posted")
	}
	if b.NotifyEvent() {
		t.Error("event coalesced into a pending task reported as posted")
	}
	p.runAll()

	p.mu.Lock()
	p.reject = true
	p.mu.Unlock()
	if b.NotifyEvent() {
		t.Error("event rejected by the poster reported as posted")
	}
	p.mu.Lock()
	p.reject = false
	p.mu.Unlock()

	b.NotifyClosed()
	if b.NotifyEvent() {
		t.Error("event after a terminal notification reported as posted")
	}
	if s := b.Stats(); s.Posted != 1 || s.Calls != 4 || s.Coalesced != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}
