package pubqueue

import (
	"github.com/kbukum/pubqueue/component"
	"github.com/kbukum/pubqueue/logger"
	"github.com/kbukum/pubqueue/observability"
)

// Option configures New.
type Option func(*options)

type options struct {
	name     string
	log      *logger.Logger
	metrics  *observability.QueueMetrics
	registry *component.Registry
}

// WithName names the queue and its executor. The default is
// "pubqueue-<uuid>".
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger for the queue and its executor.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records queue activity on m.
func WithMetrics(m *observability.QueueMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRegistry registers the queue's executor with r instead of starting
// it. Items can be pushed and subscribers attached right away; nothing is
// delivered until r.StartAll runs.
func WithRegistry(r *component.Registry) Option {
	return func(o *options) { o.registry = r }
}
