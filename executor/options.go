package executor

import "github.com/kbukum/pubqueue/logger"

// Option configures a Loop during creation.
type Option func(*Loop)

// WithLogger sets the logger used for lifecycle and panic reports.
func WithLogger(l *logger.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.log = l
		}
	}
}

// WithQueueHint pre-sizes the pending task queue.
func WithQueueHint(n int) Option {
	return func(lp *Loop) {
		if n > 0 {
			lp.tasks = make([]func(), 0, n)
		}
	}
}
