package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/lukas99o/restaurant-api/libs/kafkax"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/model"
)

func TestBookingEvent_Payload(t *testing.T) {
	b := model.Booking{
		ID:           42,
		TableID:      3,
		Start:        time.Date(2030, 1, 2, 18, 0, 0, 0, time.FixedZone("CET", 3600)),
		End:          time.Date(2030, 1, 2, 20, 0, 0, 0, time.FixedZone("CET", 3600)),
		PartySize:    4,
		ContactEmail: "guest@example.com",
	}
	evt, err := BookingEvent(EventBookingConfirmed, b)
	if err != nil {
		t.Fatalf("BookingEvent: %v", err)
	}
	if evt.EventType != EventBookingConfirmed || evt.AggregateType != AggregateBooking || evt.AggregateID != "42" {
		t.Fatalf("unexpected envelope: %+v", evt)
	}

	var got map[string]any
	if err := json.Unmarshal(evt.Payload, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["start_time"] != "2030-01-02T17:00:00Z" || got["end_time"] != "2030-01-02T19:00:00Z" {
		t.Fatalf("times must be UTC RFC3339, got %v / %v", got["start_time"], got["end_time"])
	}
	if got["table_id"] != float64(3) || got["party_size"] != float64(4) || got["contact_email"] != "guest@example.com" {
		t.Fatalf("unexpected payload: %v", got)
	}
}

func TestToMessage_HeadersAndKey(t *testing.T) {
	msg := ToMessage(context.Background(), Record{
		ID:            1,
		EventID:       "0b6c1f7e-2c55-4d8e-9a55-64f5d3a1f0aa",
		AggregateType: AggregateBooking,
		AggregateID:   "42",
		EventType:     EventBookingCancelled,
		Payload:       []byte(`{"booking_id":42}`),
	})
	if msg.Topic != EventBookingCancelled {
		t.Fatalf("topic = %q", msg.Topic)
	}
	if string(msg.Key) != "booking:42" {
		t.Fatalf("key = %q", msg.Key)
	}
	meta := kafkax.ExtractEventMeta(msg)
	if meta.EventID != "0b6c1f7e-2c55-4d8e-9a55-64f5d3a1f0aa" || meta.EventType != EventBookingCancelled {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestBacklog_Age(t *testing.T) {
	now := time.Date(2030, 1, 2, 18, 0, 0, 0, time.UTC)
	if got := (Backlog{}).Age(now); got != 0 {
		t.Fatalf("empty backlog age = %v", got)
	}
	b := Backlog{Pending: 5, Oldest: now.Add(-90 * time.Second)}
	if got := b.Age(now); got != 90*time.Second {
		t.Fatalf("age = %v", got)
	}
}
