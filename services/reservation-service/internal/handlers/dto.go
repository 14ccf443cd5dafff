package handlers

import (
	"time"

	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/model"
)

type tableRequest struct {
	Seats       *int  `json:"seats"`
	IsAvailable *bool `json:"is_available"`
}

type tableResponse struct {
	ID          int64 `json:"id"`
	Seats       int   `json:"seats"`
	IsAvailable bool  `json:"is_available"`
}

type bookingRequest struct {
	TableID      int64  `json:"table_id"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	PartySize    int    `json:"party_size"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

type bookingResponse struct {
	ID           int64  `json:"id"`
	TableID      int64  `json:"table_id"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	PartySize    int    `json:"party_size"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

func toTableResponse(t model.Table) tableResponse {
	return tableResponse{ID: t.ID, Seats: t.Seats, IsAvailable: t.IsAvailable}
}

func toTableResponses(tables []model.Table) []tableResponse {
	out := make([]tableResponse, 0, len(tables))
	for _, t := range tables {
		out = append(out, toTableResponse(t))
	}
	return out
}

func toBookingResponse(b model.Booking) bookingResponse {
	return bookingResponse{
		ID:           b.ID,
		TableID:      b.TableID,
		StartTime:    b.Start.UTC().Format(time.RFC3339),
		EndTime:      b.End.UTC().Format(time.RFC3339),
		PartySize:    b.PartySize,
		ContactName:  b.ContactName,
		ContactEmail: b.ContactEmail,
		ContactPhone: b.ContactPhone,
		CreatedAt:    formatOptional(b.CreatedAt),
		UpdatedAt:    formatOptional(b.UpdatedAt),
	}
}

func toBookingResponses(bookings []model.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	return out
}

func formatOptional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
