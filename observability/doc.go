// Package observability provides OpenTelemetry tracing and metrics for
// publishing queues.
//
// Tracing:
//
//	res := observability.Resource{ServiceName: "pubqueue-bench", ServiceVersion: version.Get().Short()}
//	tp, err := observability.InitTracer(ctx, &cfg, res)
//	defer tp.Shutdown(ctx)
//
//	ctx, phase := observability.StartPhase(ctx, observability.SpanProduce, runID, metrics)
//	defer phase.End(ctx, produced, err)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &cfg, res)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewQueueMetrics(observability.Meter("pubqueue"))
//	metrics.RecordPush(ctx, "orders")
//
// Health:
//
//	health := observability.NewServiceHealth("pubqueue-bench", version.Get().Version)
//	health.AddRegistry(ctx, registry)
package observability
