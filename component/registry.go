package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/pubqueue/logger"
)

// DefaultStopTimeout bounds each component's Stop when the caller's context
// has no earlier deadline.
const DefaultStopTimeout = 10 * time.Second

// Registry starts components in registration order and stops them in
// reverse, so a component registered after its dependencies is stopped
// before them.
type Registry struct {
	mu          sync.RWMutex
	order       []Component
	started     map[string]bool
	stopTimeout time.Duration
	log         *logger.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStopTimeout overrides DefaultStopTimeout.
func WithStopTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.stopTimeout = d }
}

// WithRegistryLogger sets the logger used for lifecycle messages.
func WithRegistryLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		started:     make(map[string]bool),
		stopTimeout: DefaultStopTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.WithComponent("component")
	}
	return r
}

// Register adds c. Names must be unique within the registry.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if r.find(name) != nil {
		return fmt.Errorf("component %s already registered", name)
	}
	r.order = append(r.order, c)
	r.log.Debug("component registered", logger.Fields("name", name))
	return nil
}

// StartAll starts every component not yet running, in registration order.
// It stops at the first failure and leaves earlier components running;
// callers clean up with StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.order {
		name := c.Name()
		if r.started[name] {
			continue
		}
		if err := c.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields("name", name, logger.FieldError, err.Error()))
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		r.started[name] = true

		fields := logger.Fields("name", name)
		if d, ok := c.(Describable); ok {
			desc := d.Describe()
			fields["type"] = desc.Type
			fields["details"] = desc.Details
		}
		r.log.Info("component started", fields)
	}
	return nil
}

// StopAll stops running components in reverse registration order. Every
// component gets its own stop budget; all failures are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i := len(r.order) - 1; i >= 0; i-- {
		c := r.order[i]
		name := c.Name()
		if !r.started[name] {
			continue
		}
		if err := r.stop(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", name, err))
			r.log.Error("component stop failed", logger.Fields("name", name, logger.FieldError, err.Error()))
		} else {
			r.log.Info("component stopped", logger.Fields("name", name))
		}
		delete(r.started, name)
	}
	return errors.Join(errs...)
}

func (r *Registry) stop(ctx context.Context, c Component) error {
	ctx, cancel := context.WithTimeout(ctx, r.stopTimeout)
	defer cancel()
	return c.Stop(ctx)
}

// HealthAll reports every registered component in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, c.Health(ctx))
	}
	return out
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.find(name)
}

func (r *Registry) find(name string) Component {
	for _, c := range r.order {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
