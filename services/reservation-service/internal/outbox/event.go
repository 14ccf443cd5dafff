package outbox

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/model"
)

// Booking lifecycle event types. The Kafka topic name equals the event type.
const (
	EventBookingConfirmed   = "reservation.booking.confirmed.v1"
	EventBookingRescheduled = "reservation.booking.rescheduled.v1"
	EventBookingCancelled   = "reservation.booking.cancelled.v1"

	AggregateBooking = "booking"
)

// Event is the domain event envelope written to the outbox table.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type bookingPayload struct {
	BookingID    int64  `json:"booking_id"`
	TableID      int64  `json:"table_id"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	PartySize    int    `json:"party_size"`
	ContactEmail string `json:"contact_email"`
}

// BookingEvent builds the envelope for a booking lifecycle change.
func BookingEvent(eventType string, b model.Booking) (Event, error) {
	payload, err := json.Marshal(bookingPayload{
		BookingID:    b.ID,
		TableID:      b.TableID,
		StartTime:    b.Start.UTC().Format(time.RFC3339),
		EndTime:      b.End.UTC().Format(time.RFC3339),
		PartySize:    b.PartySize,
		ContactEmail: b.ContactEmail,
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateBooking,
		AggregateID:   strconv.FormatInt(b.ID, 10),
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
