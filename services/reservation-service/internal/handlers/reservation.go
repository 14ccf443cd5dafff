package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lukas99o/restaurant-api/libs/auth"
	"github.com/lukas99o/restaurant-api/libs/httpx"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/model"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/reservation"
)

// Bookings is the scheduling surface the handlers drive.
type Bookings interface {
	Create(ctx context.Context, req reservation.Request) (model.Booking, error)
	Reschedule(ctx context.Context, id int64, req reservation.Request) (model.Booking, error)
	Cancel(ctx context.Context, id int64) (bool, error)
	AvailableTables(ctx context.Context, start, end time.Time) ([]model.Table, error)
	Get(ctx context.Context, id int64) (model.Booking, error)
	List(ctx context.Context) ([]model.Booking, error)
	ListForTable(ctx context.Context, tableID int64) ([]model.Booking, error)
}

// Tables is the table administration surface.
type Tables interface {
	CreateTable(ctx context.Context, seats int, isAvailable bool) (model.Table, error)
	UpdateTable(ctx context.Context, id int64, seats int, isAvailable bool) (model.Table, error)
	DeleteTable(ctx context.Context, id int64) (bool, error)
	GetTable(ctx context.Context, id int64) (model.Table, error)
	ListTables(ctx context.Context) ([]model.Table, error)
}

type ReservationHandler struct {
	bookings Bookings
	tables   Tables
	logger   *slog.Logger
}

func NewReservationHandler(bookings Bookings, tables Tables, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{bookings: bookings, tables: tables, logger: logger}
}

// Register mounts the API on mux. Table reads and availability are public, booking
// routes need a staff or admin token and table changes need an admin token.
func (h *ReservationHandler) Register(mux *http.ServeMux, jwtSecret string) {
	authn := httpx.RequireAuth(jwtSecret)
	staff := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, authn, httpx.RequireRole(auth.RoleStaff, auth.RoleAdmin))
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, authn, httpx.RequireRole(auth.RoleAdmin))
	}

	mux.HandleFunc("GET /api/v1/tables/available", h.AvailableTables)
	mux.HandleFunc("GET /api/v1/tables", h.ListTables)
	mux.HandleFunc("GET /api/v1/tables/{id}", h.GetTable)
	mux.Handle("POST /api/v1/tables", admin(h.CreateTable))
	mux.Handle("PUT /api/v1/tables/{id}", admin(h.UpdateTable))
	mux.Handle("DELETE /api/v1/tables/{id}", admin(h.DeleteTable))

	mux.Handle("POST /api/v1/bookings", staff(h.CreateBooking))
	mux.Handle("GET /api/v1/bookings", staff(h.ListBookings))
	mux.Handle("GET /api/v1/bookings/{id}", staff(h.GetBooking))
	mux.Handle("PUT /api/v1/bookings/{id}", staff(h.RescheduleBooking))
	mux.Handle("DELETE /api/v1/bookings/{id}", staff(h.CancelBooking))
}

func (h *ReservationHandler) AvailableTables(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		writeBadRequest(w, "invalid start (RFC3339 required)")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		writeBadRequest(w, "invalid end (RFC3339 required)")
		return
	}
	minSeats := 0
	if raw := strings.TrimSpace(q.Get("party_size")); raw != "" {
		minSeats, err = strconv.Atoi(raw)
		if err != nil || minSeats <= 0 {
			writeBadRequest(w, "invalid party_size")
			return
		}
	}

	tables, err := h.bookings.AvailableTables(r.Context(), start, end)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if minSeats > 0 {
		fitting := tables[:0]
		for _, t := range tables {
			if t.Seats >= minSeats {
				fitting = append(fitting, t)
			}
		}
		tables = fitting
	}
	httpx.WriteJSON(w, http.StatusOK, toTableResponses(tables))
}

func (h *ReservationHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.tables.ListTables(r.Context())
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTableResponses(tables))
}

func (h *ReservationHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.tables.GetTable(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTableResponse(t))
}

func (h *ReservationHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	seats, available, ok := decodeTable(w, r)
	if !ok {
		return
	}
	t, err := h.tables.CreateTable(r.Context(), seats, available)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/tables/"+strconv.FormatInt(t.ID, 10))
	httpx.WriteJSON(w, http.StatusCreated, toTableResponse(t))
}

func (h *ReservationHandler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	seats, available, ok := decodeTable(w, r)
	if !ok {
		return
	}
	t, err := h.tables.UpdateTable(r.Context(), id, seats, available)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTableResponse(t))
}

func (h *ReservationHandler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.tables.DeleteTable(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if !deleted {
		httpx.WriteError(w, http.StatusNotFound, "TableNotFound", "table not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReservationHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBooking(w, r)
	if !ok {
		return
	}
	b, err := h.bookings.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/bookings/"+strconv.FormatInt(b.ID, 10))
	httpx.WriteJSON(w, http.StatusCreated, toBookingResponse(b))
}

func (h *ReservationHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	var (
		bookings []model.Booking
		err      error
	)
	if raw := strings.TrimSpace(r.URL.Query().Get("table_id")); raw != "" {
		tableID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || tableID <= 0 {
			writeBadRequest(w, "invalid table_id")
			return
		}
		bookings, err = h.bookings.ListForTable(r.Context(), tableID)
	} else {
		bookings, err = h.bookings.List(r.Context())
	}
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toBookingResponses(bookings))
}

func (h *ReservationHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.bookings.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *ReservationHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodeBooking(w, r)
	if !ok {
		return
	}
	b, err := h.bookings.Reschedule(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *ReservationHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	cancelled, err := h.bookings.Cancel(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if !cancelled {
		httpx.WriteError(w, http.StatusNotFound, "BookingNotFound", "booking not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

func decodeTable(w http.ResponseWriter, r *http.Request) (int, bool, bool) {
	var req tableRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid json body")
		return 0, false, false
	}
	if req.Seats == nil {
		writeBadRequest(w, "seats is required")
		return 0, false, false
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	return *req.Seats, available, true
}

func decodeBooking(w http.ResponseWriter, r *http.Request) (reservation.Request, bool) {
	var body bookingRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		writeBadRequest(w, "invalid json body")
		return reservation.Request{}, false
	}
	if body.TableID <= 0 {
		writeBadRequest(w, "table_id is required")
		return reservation.Request{}, false
	}
	start, err := time.Parse(time.RFC3339, body.StartTime)
	if err != nil {
		writeBadRequest(w, "invalid start_time")
		return reservation.Request{}, false
	}
	end, err := time.Parse(time.RFC3339, body.EndTime)
	if err != nil {
		writeBadRequest(w, "invalid end_time")
		return reservation.Request{}, false
	}
	return reservation.Request{
		TableID:      body.TableID,
		Start:        start,
		End:          end,
		PartySize:    body.PartySize,
		ContactName:  body.ContactName,
		ContactEmail: body.ContactEmail,
		ContactPhone: body.ContactPhone,
	}, true
}
