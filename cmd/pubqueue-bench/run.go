package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/pubqueue/component"
	"github.com/kbukum/pubqueue/errors"
	"github.com/kbukum/pubqueue/logger"
	"github.com/kbukum/pubqueue/observability"
	"github.com/kbukum/pubqueue/pipeline"
	"github.com/kbukum/pubqueue/pubqueue"
	"github.com/kbukum/pubqueue/resilience"
	"github.com/kbukum/pubqueue/version"
)

// errAbortRequested is the abort cause used when bench.abort_after is reached.
var errAbortRequested = errors.New(errors.ErrCodeAborted, "abort_after reached")

// item is what producers push.
type item struct {
	Producer int
	Seq      int
}

// Report summarizes one run.
type Report struct {
	RunID    string
	Queue    string
	Produced int64
	Rejected int64
	// Consumed holds the item count seen by each subscriber.
	Consumed []int
	Batches  []int
	Aborted  bool
	Duration time.Duration
	Health   *observability.ServiceHealth
}

// Fields returns the report as log fields.
func (r *Report) Fields() map[string]interface{} {
	return logger.Fields(
		logger.FieldRunID, r.RunID,
		logger.FieldQueue, r.Queue,
		"produced", r.Produced,
		"rejected", r.Rejected,
		"consumed", r.Consumed,
		"batches", r.Batches,
		"aborted", r.Aborted,
		logger.FieldDuration, r.Duration.Milliseconds(),
		"health", string(r.Health.Status),
	)
}

// runner executes the workload described by a Config.
type runner struct {
	cfg     *Config
	log     *logger.Logger
	metrics *observability.QueueMetrics
	limiter *resilience.Limiter
	retry   resilience.RetryConfig

	produced atomic.Int64
	rejected atomic.Int64
}

func newRunner(cfg *Config, log *logger.Logger, metrics *observability.QueueMetrics) *runner {
	retry := resilience.DefaultRetryConfig()
	retry.InitialBackoff = cfg.Bench.RetryBackoff
	retry.MaxBackoff = cfg.Bench.RetryMaxBackoff
	return &runner{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		limiter: resilience.NewLimiter(resilience.LimiterConfig{Rate: cfg.Bench.Rate, Burst: cfg.Bench.Burst}),
		retry:   retry,
	}
}

// Run pushes producers*items values through one queue and consumes them
// with the configured number of subscribers. Each subscriber must observe
// every producer's items in push order.
func (r *runner) Run(ctx context.Context) (*Report, error) {
	b := r.cfg.Bench
	runID := b.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	registry := component.NewRegistry(component.WithRegistryLogger(r.log))
	q, pub, err := pubqueue.New[item](r.cfg.Queue,
		pubqueue.WithName("bench-"+runID[:8]),
		pubqueue.WithLogger(r.log),
		pubqueue.WithMetrics(r.metrics),
		pubqueue.WithRegistry(registry),
	)
	if err != nil {
		return nil, err
	}
	if err := registry.StartAll(ctx); err != nil {
		return nil, err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		if err := registry.StopAll(stopCtx); err != nil {
			r.log.Warn("stopping components", logger.ErrorFields("stop", err))
		}
	}()

	log := r.log.WithFields(logger.Fields(logger.FieldRunID, runID, logger.FieldQueue, q.Name()))
	log.Info("run started", logger.Fields(
		"producers", b.Producers, "items", b.Items, "mode", b.Mode,
		"subscribers", b.Subscribers, logger.FieldCapacity, q.Cap(),
	))

	ctx, runPhase := observability.StartPhase(ctx, observability.SpanBenchRun, runID, r.metrics)
	report := &Report{
		RunID:    runID,
		Queue:    q.Name(),
		Consumed: make([]int, b.Subscribers),
		Batches:  make([]int, b.Subscribers),
		Health:   observability.NewServiceHealth(r.cfg.Name, version.Get().Short()),
	}

	// The loop exits once the stream terminates, so health is taken while it runs.
	report.Health.AddRegistry(ctx, registry)

	// Subscribe every consumer before the first push so each sees all items.
	iters := make([]pipeline.Iterator[item], b.Subscribers)
	for i := range iters {
		iters[i] = pipeline.FromPublisher(pub, b.Prefetch).Iter(ctx)
	}

	stopAbort := context.AfterFunc(ctx, func() { q.Abort(context.Cause(ctx)) })
	defer stopAbort()

	consumers, cctx := errgroup.WithContext(ctx)
	for i, it := range iters {
		consumers.Go(func() error {
			err := r.consume(cctx, runID, it, &report.Consumed[i], &report.Batches[i])
			if err != nil {
				// Unblock producers once nobody drains the queue any more.
				q.Abort(err)
			}
			return err
		})
	}

	producers, pctx := errgroup.WithContext(ctx)
	for p := range b.Producers {
		h := q.Clone()
		producers.Go(func() error {
			defer h.Release()
			return r.produce(pctx, runID, h, p)
		})
	}
	// The producers now hold the only live handles; the last Release closes.
	q.Release()

	perr := producers.Wait()
	if perr != nil {
		q.Abort(perr)
	}
	cerr := consumers.Wait()

	report.Produced = r.produced.Load()
	report.Rejected = r.rejected.Load()
	report.Duration = runPhase.Duration()

	err = perr
	if err == nil {
		err = cerr
	}
	if stderrors.Is(cerr, errAbortRequested) && perr == nil {
		report.Aborted, err = true, nil
	}
	runPhase.End(ctx, int(report.Produced), err)
	if err != nil {
		log.Error("run failed", logger.ErrorFields("run", err))
		return report, err
	}
	log.Info("run finished", report.Fields())
	return report, nil
}

func (r *runner) produce(ctx context.Context, runID string, q *pubqueue.Queue[item], producer int) error {
	b := r.cfg.Bench
	ctx, phase := observability.StartPhase(ctx, observability.SpanProduce, runID, r.metrics)
	pushed := 0
	err := func() error {
		for seq := range b.Items {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil
			}
			if err := r.push(ctx, q, item{Producer: producer, Seq: seq}); err != nil {
				if stderrors.Is(err, errors.ErrClosed) || ctx.Err() != nil {
					// Aborted by another goroutine or by cancellation.
					return nil
				}
				return err
			}
			pushed++
			if n := r.produced.Add(1); b.AbortAfter > 0 && n == int64(b.AbortAfter) {
				q.Abort(errAbortRequested)
				return nil
			}
		}
		return nil
	}()
	phase.End(ctx, pushed, err)
	return err
}

// push adds v with Push, or in try mode with TryPush retried on a backoff.
func (r *runner) push(ctx context.Context, q *pubqueue.Queue[item], v item) error {
	if r.cfg.Bench.Mode != ModeTry {
		return q.Push(v)
	}
	attempts, err := resilience.Retry(ctx, r.retry, func() error {
		if q.TryPush(v) {
			return nil
		}
		if q.Closed() {
			return errors.Closed("queue")
		}
		return resilience.ErrFull
	})
	if attempts > 1 {
		r.rejected.Add(int64(attempts - 1))
	}
	return err
}

func (r *runner) consume(ctx context.Context, runID string, it pipeline.Iterator[item], consumed, batches *int) error {
	b := r.cfg.Bench
	ctx, phase := observability.StartPhase(ctx, observability.SpanConsume, runID, r.metrics)

	src := pipeline.From(it)
	if b.ReadAhead > 0 {
		src = pipeline.Buffer(src, b.ReadAhead)
	}
	next := make([]int, b.Producers)
	checked := pipeline.Tap(src, func(_ context.Context, v item) error {
		if v.Seq != next[v.Producer] {
			return errors.Internal(fmt.Errorf("producer %d: got seq %d, want %d", v.Producer, v.Seq, next[v.Producer]))
		}
		next[v.Producer]++
		return nil
	})
	producers := pipeline.Map(checked, func(_ context.Context, v item) (int, error) {
		return v.Producer, nil
	})

	perProducer := make([]int, b.Producers)
	err := pipeline.ForEach(ctx, pipeline.Batch(producers, b.BatchSize, b.FlushInterval),
		func(_ context.Context, batch []int) error {
			for _, p := range batch {
				perProducer[p]++
			}
			*consumed += len(batch)
			*batches++
			return nil
		})
	if err == nil {
		// A completed stream must carry every item of every producer.
		for p, n := range perProducer {
			if n != b.Items {
				err = errors.Internal(fmt.Errorf("producer %d: consumed %d of %d items", p, n, b.Items))
				break
			}
		}
	}
	phase.End(ctx, *consumed, err)
	return err
}
