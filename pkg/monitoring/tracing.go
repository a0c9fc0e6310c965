package monitoring

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name registered with OTel.
const tracerName = "spark-app-monitor"

// Tracer is the package-level OTel tracer for the monitor.
// It returns a noop tracer when no TracerProvider is registered,
// making instrumentation zero-cost in the default configuration.
var Tracer = otel.Tracer(tracerName)

// StartTrackSpan starts the span covering one application's tracking, from
// identity resolution to terminal state. Callers must call span.End() when
// the monitor ends.
func StartTrackSpan(ctx context.Context, tag string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, "monitor.track",
		trace.WithAttributes(
			attribute.String("spark.app.tag", tag),
		),
	)
}

// StartChildSpan starts a child span under the current trace context.
// Use this for sub-operations of tracking (e.g. resolve, sweep).
func StartChildSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, spanName)
}

// RecordSpanError records an error on a span and sets the span status to
// Error. If err is nil, this is a no-op.
func RecordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
