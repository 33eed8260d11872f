package pubqueue

import (
	"context"

	"github.com/google/uuid"

	"github.com/kbukum/pubqueue/buffer"
	"github.com/kbukum/pubqueue/executor"
	"github.com/kbukum/pubqueue/flow"
	"github.com/kbukum/pubqueue/logger"
	"github.com/kbukum/pubqueue/notify"
)

// New creates a queue and the publisher that streams its items.
//
// The publisher runs on an executor owned by the queue. The executor is
// started immediately unless WithRegistry is given, and exits by itself once
// the stream has completed or aborted.
func New[T any](cfg Config, opts ...Option) (*Queue[T], flow.Publisher[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = "pubqueue-" + uuid.NewString()
	}
	log := o.log
	if log == nil {
		log = logger.WithComponent("pubqueue")
	}
	log = log.WithFields(logger.Fields(logger.FieldQueue, o.name))

	buf, err := buffer.New[T](cfg.Capacity)
	if err != nil {
		return nil, nil, err
	}

	loop := executor.New(o.name, executor.WithLogger(log), executor.WithQueueHint(4))
	be := &backend[T]{
		name:    o.name,
		buf:     buf,
		loop:    loop,
		metrics: o.metrics,
		log:     log,
	}
	be.pub = flow.NewBuffered[T](loop, be,
		flow.WithBatchSize(cfg.BatchSize),
		flow.WithLogger(log),
		flow.WithHooks(be.hooks()),
	)

	s := &shared[T]{
		name:    o.name,
		buf:     buf,
		bridge:  notify.NewBridge(loop, be),
		metrics: o.metrics,
		log:     log,
	}
	s.refs.Store(1)

	if o.registry != nil {
		if err := o.registry.Register(loop); err != nil {
			return nil, nil, err
		}
	} else if err := loop.Start(context.Background()); err != nil {
		return nil, nil, err
	}

	log.Debug("queue created", logger.Fields(
		logger.FieldCapacity, cfg.Capacity,
		"batch_size", cfg.BatchSize,
	))
	return &Queue[T]{s: s}, be.pub, nil
}
