package kafkax

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestExtractEventMetaFallbacks(t *testing.T) {
	msg := kafka.Message{Topic: "restaurant.table.availability.changed.v1", Key: []byte("12")}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "12" || meta.EventType != msg.Topic {
		t.Fatalf("unexpected fallback meta %+v", meta)
	}

	msg.Headers = MetaHeaders(EventMeta{EventID: "evt-1", EventType: "custom"})
	meta = ExtractEventMeta(msg)
	if meta.EventID != "evt-1" || meta.EventType != "custom" {
		t.Fatalf("unexpected header meta %+v", meta)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092")
	if len(got) != 2 || got[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	headers := InjectTraceHeaders(ctx, MetaHeaders(EventMeta{EventID: "e", EventType: "t"}))
	if HeaderValue(headers, "traceparent") == "" {
		t.Fatal("expected traceparent header")
	}
	got := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), kafka.Message{Headers: headers}))
	if got.TraceID() != traceID {
		t.Fatalf("expected trace id %s, got %s", traceID, got.TraceID())
	}
}

func TestHeaderCarrierReplacesExisting(t *testing.T) {
	c := HeaderCarrier{{Key: "traceparent", Value: []byte("old")}}
	c.Set("traceparent", "new")
	c.Set("tracestate", "vendor=x")
	if len(c) != 2 || c.Get("traceparent") != "new" {
		t.Fatalf("unexpected headers %+v", c)
	}
	if keys := c.Keys(); keys[0] != "traceparent" || keys[1] != "tracestate" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestReadyCheckWithoutBrokers(t *testing.T) {
	if err := ReadyCheck(" , ")(context.Background()); err == nil {
		t.Fatal("expected an error when no brokers are configured")
	}
}

func TestOccurredAtHeader(t *testing.T) {
	at := time.Date(2030, 3, 1, 18, 30, 0, 0, time.FixedZone("CET", 3600))
	msg := kafka.Message{Headers: MetaHeaders(EventMeta{EventID: "e", EventType: "t", OccurredAt: at})}
	if got := HeaderValue(msg.Headers, HeaderOccurredAt); got != "2030-03-01T17:30:00Z" {
		t.Fatalf("occurred_at header = %q", got)
	}
	if meta := ExtractEventMeta(msg); !meta.OccurredAt.Equal(at) {
		t.Fatalf("expected %v, got %v", at, meta.OccurredAt)
	}

	broker := time.Date(2030, 3, 1, 17, 31, 0, 0, time.UTC)
	if meta := ExtractEventMeta(kafka.Message{Time: broker}); !meta.OccurredAt.Equal(broker) {
		t.Fatalf("expected broker time fallback, got %v", meta.OccurredAt)
	}
}
