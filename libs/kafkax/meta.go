package kafkax

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID    = "event_id"
	HeaderEventType  = "event_type"
	HeaderOccurredAt = "occurred_at"
)

// EventMeta travels in headers so consumers can dedupe and route without decoding the
// payload.
type EventMeta struct {
	EventID    string
	EventType  string
	OccurredAt time.Time
}

// ExtractEventMeta reads EventMeta from msg. A producer that sets no headers is still
// usable: the key stands in for the id and the topic for the type.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	meta := EventMeta{
		EventID:   HeaderValue(msg.Headers, HeaderEventID),
		EventType: HeaderValue(msg.Headers, HeaderEventType),
	}
	if meta.EventID == "" {
		meta.EventID = string(msg.Key)
	}
	if meta.EventType == "" {
		meta.EventType = msg.Topic
	}
	if ts, err := time.Parse(time.RFC3339Nano, HeaderValue(msg.Headers, HeaderOccurredAt)); err == nil {
		meta.OccurredAt = ts
	} else {
		meta.OccurredAt = msg.Time
	}
	return meta
}

func MetaHeaders(meta EventMeta) []kafka.Header {
	headers := []kafka.Header{
		{Key: HeaderEventID, Value: []byte(meta.EventID)},
		{Key: HeaderEventType, Value: []byte(meta.EventType)},
	}
	if !meta.OccurredAt.IsZero() {
		headers = append(headers, kafka.Header{
			Key:   HeaderOccurredAt,
			Value: []byte(meta.OccurredAt.UTC().Format(time.RFC3339Nano)),
		})
	}
	return headers
}

// HeaderValue returns the first header named key, or "".
func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// SplitBrokers parses a comma separated KAFKA_BROKERS value.
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
