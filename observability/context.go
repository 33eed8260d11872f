package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Phase tracks one timed stage of a run, such as producing or consuming.
type Phase struct {
	Name      string
	RunID     string
	StartTime time.Time
	Metrics   *QueueMetrics

	span trace.Span
}

// phaseContextKey is the context key for Phase.
type phaseContextKey struct{}

// StartPhase starts a span named name and returns a context carrying the
// phase. metrics may be nil.
func StartPhase(ctx context.Context, name, runID string, metrics *QueueMetrics) (context.Context, *Phase) {
	p := &Phase{
		Name:      name,
		RunID:     runID,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
	ctx, p.span = StartSpan(ctx, name)
	p.span.SetAttributes(
		attribute.String(AttrPhase, name),
		attribute.String(AttrRunID, runID),
	)
	return context.WithValue(ctx, phaseContextKey{}, p), p
}

// PhaseFromContext retrieves the Phase from context, or nil.
func PhaseFromContext(ctx context.Context) *Phase {
	if p, ok := ctx.Value(phaseContextKey{}).(*Phase); ok {
		return p
	}
	return nil
}

// End ends the span and records the phase duration.
func (p *Phase) End(ctx context.Context, items int, err error) {
	duration := time.Since(p.StartTime)
	status := "ok"
	if err != nil {
		status = "error"
		p.span.RecordError(err)
		p.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}

	p.span.SetAttributes(
		attribute.Int(AttrItems, items),
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	p.span.End()

	p.Metrics.RecordPhase(ctx, p.Name, status, duration)
}

// Duration returns the elapsed time since the phase started.
func (p *Phase) Duration() time.Duration {
	return time.Since(p.StartTime)
}
