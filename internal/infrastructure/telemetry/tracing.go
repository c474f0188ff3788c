package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for application spans
const TracerName = "smarterp"

// Span attribute keys used by the application services
const (
	SpanAttrOrderID     = "order.id"
	SpanAttrOrderNumber = "order.number"
	SpanAttrCustomerID  = "customer.id"
	SpanAttrCollection  = "document.collection"
	SpanAttrFeature     = "ai.feature"
	SpanAttrMonth       = "report.month"
)

// StartSpan starts an internal span named "<service>.<method>"
//
//	ctx, span := telemetry.StartSpan(ctx, "order", "create")
//	defer span.End()
func StartSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks the span failed. A nil error is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceID returns the trace id of the span in ctx, or ""
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
