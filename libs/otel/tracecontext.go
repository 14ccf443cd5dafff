package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StoredTrace is the W3C trace context of a span, flattened for a database row so an
// asynchronous worker can continue the trace later.
type StoredTrace struct {
	Traceparent string
	Tracestate  string
}

// CaptureTrace serialises the span context active on ctx. It is empty when ctx carries
// no valid span.
func CaptureTrace(ctx context.Context) StoredTrace {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return StoredTrace{}
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return StoredTrace{Traceparent: carrier.Get("traceparent"), Tracestate: carrier.Get("tracestate")}
}

func (s StoredTrace) Empty() bool {
	return s.Traceparent == ""
}

// Restore returns ctx with the stored span context as its remote parent.
func (s StoredTrace) Restore(ctx context.Context) context.Context {
	if s.Empty() {
		return ctx
	}
	carrier := propagation.MapCarrier{"traceparent": s.Traceparent}
	if s.Tracestate != "" {
		carrier["tracestate"] = s.Tracestate
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
