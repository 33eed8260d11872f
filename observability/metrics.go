package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument names recorded by QueueMetrics.
const (
	MetricPushed        = "pubqueue.pushed"
	MetricRejected      = "pubqueue.rejected"
	MetricDelivered     = "pubqueue.delivered"
	MetricBuffered      = "pubqueue.buffered"
	MetricBlocked       = "pubqueue.producers.blocked"
	MetricNotifications = "pubqueue.notifications"
	MetricTerminated    = "pubqueue.terminated"
	MetricPhaseDuration = "pubqueue.phase.duration"
)

// QueueMetrics holds the instruments for one or more publishing queues.
// A nil *QueueMetrics records nothing, so callers never need to guard it.
type QueueMetrics struct {
	pushed        metric.Int64Counter
	rejected      metric.Int64Counter
	delivered     metric.Int64Counter
	buffered      metric.Int64UpDownCounter
	blocked       metric.Int64UpDownCounter
	notifications metric.Int64Counter
	terminated    metric.Int64Counter
	phaseDuration metric.Float64Histogram
}

// NewQueueMetrics creates queue instruments on the given meter.
func NewQueueMetrics(meter metric.Meter) (*QueueMetrics, error) {
	pushed, err := meter.Int64Counter(MetricPushed,
		metric.WithDescription("Items accepted into the shared buffer"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricPushed, err)
	}

	rejected, err := meter.Int64Counter(MetricRejected,
		metric.WithDescription("Items refused because the buffer was full or closed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRejected, err)
	}

	delivered, err := meter.Int64Counter(MetricDelivered,
		metric.WithDescription("Items emitted to subscribers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricDelivered, err)
	}

	buffered, err := meter.Int64UpDownCounter(MetricBuffered,
		metric.WithDescription("Items currently held in the shared buffer"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricBuffered, err)
	}

	blocked, err := meter.Int64UpDownCounter(MetricBlocked,
		metric.WithDescription("Producers currently blocked in Push"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricBlocked, err)
	}

	notifications, err := meter.Int64Counter(MetricNotifications,
		metric.WithDescription("Wake-ups posted to the consumer executor"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricNotifications, err)
	}

	terminated, err := meter.Int64Counter(MetricTerminated,
		metric.WithDescription("Streams that reached a terminal state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricTerminated, err)
	}

	phaseDuration, err := meter.Float64Histogram(MetricPhaseDuration,
		metric.WithDescription("Duration of tracked phases in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricPhaseDuration, err)
	}

	return &QueueMetrics{
		pushed:        pushed,
		rejected:      rejected,
		delivered:     delivered,
		buffered:      buffered,
		blocked:       blocked,
		notifications: notifications,
		terminated:    terminated,
		phaseDuration: phaseDuration,
	}, nil
}

func queueAttr(queue string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(AttrQueueName, queue))
}

// RecordPush records an accepted item.
func (m *QueueMetrics) RecordPush(ctx context.Context, queue string) {
	if m == nil {
		return
	}
	attrs := queueAttr(queue)
	m.pushed.Add(ctx, 1, attrs)
	m.buffered.Add(ctx, 1, attrs)
}

// RecordReject records a refused item. reason is "full" or "closed".
func (m *QueueMetrics) RecordReject(ctx context.Context, queue, reason string) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrQueueName, queue),
		attribute.String(AttrReason, reason),
	))
}

// RecordDelivered records n items leaving the shared buffer for subscribers.
func (m *QueueMetrics) RecordDelivered(ctx context.Context, queue string, n int) {
	if m == nil || n <= 0 {
		return
	}
	attrs := queueAttr(queue)
	m.delivered.Add(ctx, int64(n), attrs)
	m.buffered.Add(ctx, -int64(n), attrs)
}

// RecordDiscarded records n buffered items dropped by an abort.
func (m *QueueMetrics) RecordDiscarded(ctx context.Context, queue string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.buffered.Add(ctx, -int64(n), queueAttr(queue))
}

// RecordBlocked adjusts the number of producers waiting for space.
func (m *QueueMetrics) RecordBlocked(ctx context.Context, queue string, delta int64) {
	if m == nil {
		return
	}
	m.blocked.Add(ctx, delta, queueAttr(queue))
}

// RecordNotification records a wake-up posted to the consumer.
func (m *QueueMetrics) RecordNotification(ctx context.Context, queue string) {
	if m == nil {
		return
	}
	m.notifications.Add(ctx, 1, queueAttr(queue))
}

// RecordTerminated records a stream reaching state ("done" or "aborted").
func (m *QueueMetrics) RecordTerminated(ctx context.Context, queue, state string) {
	if m == nil {
		return
	}
	m.terminated.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrQueueName, queue),
		attribute.String(AttrState, state),
	))
}

// RecordPhase records how long a tracked phase took.
func (m *QueueMetrics) RecordPhase(ctx context.Context, phase, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrPhase, phase),
		attribute.String(AttrStatus, status),
	))
}
