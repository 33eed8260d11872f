package main

import (
	"context"
	"fmt"
	"sync"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/pubqueue/component"
	"github.com/kbukum/pubqueue/observability"
	"github.com/kbukum/pubqueue/version"
)

// telemetry owns the OTLP exporters the config enables.
type telemetry struct {
	cfg *Config

	mu      sync.Mutex
	mp      *sdkmetric.MeterProvider
	tp      *sdktrace.TracerProvider
	metrics *observability.QueueMetrics
	running bool
}

var (
	_ component.Component   = (*telemetry)(nil)
	_ component.Describable = (*telemetry)(nil)
)

func newTelemetry(cfg *Config) *telemetry {
	return &telemetry{cfg: cfg}
}

func (t *telemetry) Name() string { return "telemetry" }

func (t *telemetry) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	o := &t.cfg.Observability
	res := observability.Resource{
		ServiceName:    t.cfg.Name,
		ServiceVersion: version.Get().Short(),
		Environment:    t.cfg.Environment,
	}
	if o.Metrics {
		mp, err := observability.InitMeter(ctx, o, res)
		if err != nil {
			return err
		}
		metrics, err := observability.NewQueueMetrics(observability.Meter("pubqueue"))
		if err != nil {
			_ = mp.Shutdown(ctx)
			return err
		}
		t.mp, t.metrics = mp, metrics
	}

	if o.Tracing {
		tp, err := observability.InitTracer(ctx, o, res)
		if err != nil {
			return err
		}
		t.tp = tp
	}

	t.running = true
	return nil
}

// Stop flushes and shuts down the exporters.
func (t *telemetry) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	if t.tp != nil {
		firstErr = t.tp.Shutdown(ctx)
	}
	if t.mp != nil {
		if err := t.mp.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	t.running = false
	return firstErr
}

func (t *telemetry) Health(context.Context) component.Health {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := component.Health{Name: t.Name(), Status: component.StatusHealthy, Message: t.details()}
	if !t.running {
		h.Status = component.StatusUnhealthy
	}
	return h
}

func (t *telemetry) Describe() component.Description {
	return component.Description{Type: "observability", Details: t.details()}
}

// Metrics returns the queue instruments, nil when metrics export is off.
func (t *telemetry) Metrics() *observability.QueueMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metrics
}

func (t *telemetry) details() string {
	o := t.cfg.Observability
	return fmt.Sprintf("metrics=%t tracing=%t endpoint=%s", o.Metrics, o.Tracing, o.Endpoint)
}
