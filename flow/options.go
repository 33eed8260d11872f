package flow

import "github.com/kbukum/pubqueue/logger"

// Hooks observe a Buffered. Every hook runs on the Buffered's executor.
type Hooks struct {
	// OnPulled is called with the number of items taken from the source.
	OnPulled func(n int)
	// OnDelivered is called with the number of items emitted to subscribers.
	OnDelivered func(n int)
	// OnTransition is called after every state change.
	OnTransition func(from, to State)
}

// Option configures a Buffered.
type Option func(*options)

type options struct {
	batchSize int
	log       *logger.Logger
	hooks     Hooks
}

// WithBatchSize caps a single pull from the source. Non-positive values
// select DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithLogger sets the logger for state transitions.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithHooks installs observation hooks.
func WithHooks(h Hooks) Option {
	return func(o *options) { o.hooks = h }
}
