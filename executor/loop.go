package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kbukum/pubqueue/component"
	"github.com/kbukum/pubqueue/errors"
	"github.com/kbukum/pubqueue/logger"
)

type loopState int

const (
	stateIdle loopState = iota
	stateRunning
	stateStopping
	stateStopped
)

func (s loopState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRunning:
		return "running"
	case stateStopping:
		return "stopping"
	case stateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("loopState(%d)", int(s))
	}
}

// Loop runs posted tasks serially on one goroutine.
type Loop struct {
	name string
	log  *logger.Logger

	mu    sync.Mutex
	state loopState
	tasks []func()

	wake chan struct{}
	done chan struct{}

	executed atomic.Uint64
	panics   atomic.Uint64
}

var _ component.Component = (*Loop)(nil)

// New creates a loop. Tasks may be posted before Start; they run once the
// loop is launched.
func New(name string, opts ...Option) *Loop {
	l := &Loop{
		name: name,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.WithComponent("executor")
	}
	l.log = l.log.WithFields(logger.Fields(logger.FieldExecutor, name))
	return l
}

// Name returns the loop name.
func (l *Loop) Name() string { return l.name }

// Post enqueues task. It is safe to call from any goroutine, including from a
// task running on this loop. It returns false once the loop is shutting down;
// the task is then dropped.
func (l *Loop) Post(task func()) bool {
	l.mu.Lock()
	if l.state >= stateStopping {
		l.mu.Unlock()
		return false
	}
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	l.signal()
	return true
}

// Start launches the loop goroutine.
func (l *Loop) Start(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != stateIdle {
		return fmt.Errorf("executor %s: cannot start from state %s", l.name, l.state)
	}
	l.state = stateRunning
	go l.run()

	l.log.Debug("loop started")
	return nil
}

// Shutdown asks the loop to exit once the tasks already queued have run. It
// does not wait, so it may be called from a task.
func (l *Loop) Shutdown() {
	l.mu.Lock()
	switch l.state {
	case stateIdle:
		l.state = stateStopped
		l.tasks = nil
		close(l.done)
	case stateRunning:
		l.state = stateStopping
	}
	l.mu.Unlock()

	l.signal()
}

// Stop shuts the loop down and waits for it to exit or for ctx to be done.
// It must not be called from a task running on this loop.
func (l *Loop) Stop(ctx context.Context) error {
	l.Shutdown()
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("executor %s: stop: %w", l.name, ctx.Err())
	}
}

// Done is closed after the loop has exited.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Executed returns the number of tasks run so far.
func (l *Loop) Executed() uint64 { return l.executed.Load() }

// Pending returns the number of queued tasks that have not started.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Health reports running loops as healthy.
func (l *Loop) Health(_ context.Context) component.Health {
	l.mu.Lock()
	state := l.state
	l.mu.Unlock()

	h := component.Health{Name: l.name, Message: state.String()}
	switch state {
	case stateRunning:
		h.Status = component.StatusHealthy
		if p := l.panics.Load(); p > 0 {
			h.Status = component.StatusDegraded
			h.Message = fmt.Sprintf("%d task panics", p)
		}
	case stateStopping:
		h.Status = component.StatusDegraded
	default:
		h.Status = component.StatusUnhealthy
	}
	return h
}

// Describe implements component.Describable.
func (l *Loop) Describe() component.Description {
	return component.Description{
		Type:    "executor",
		Details: fmt.Sprintf("pending=%d executed=%d", l.Pending(), l.Executed()),
	}
}

// PostErr is Post returning errors.ErrExecutorStopped instead of false.
func (l *Loop) PostErr(task func()) error {
	if !l.Post(task) {
		return errors.ExecutorStopped(l.name)
	}
	return nil
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		batch := l.tasks
		l.tasks = nil
		if len(batch) == 0 && l.state == stateStopping {
			l.state = stateStopped
			l.mu.Unlock()
			l.log.Debug("loop stopped", logger.Fields("executed", l.executed.Load()))
			return
		}
		l.mu.Unlock()

		if len(batch) == 0 {
			<-l.wake
			continue
		}
		for i, task := range batch {
			l.runTask(task)
			batch[i] = nil
		}
	}
}

func (l *Loop) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			l.log.Error("task panicked", logger.Fields(logger.FieldError, fmt.Sprint(r)))
		}
	}()
	task()
	l.executed.Add(1)
}
