package handlers

import (
	"log/slog"
	"net/http"

	"github.com/lukas99o/restaurant-api/libs/httpx"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/reservation"
)

const kindInvalidRequest = "InvalidRequest"

var kindStatus = map[string]int{
	"InvalidWindow":    http.StatusBadRequest,
	"WindowTooSoon":    http.StatusBadRequest,
	"WindowTooFar":     http.StatusBadRequest,
	"InvalidPartySize": http.StatusBadRequest,
	"InvalidContact":   http.StatusBadRequest,
	"InvalidSeats":     http.StatusBadRequest,
	"PartyTooLarge":    http.StatusUnprocessableEntity,
	"TableUnavailable": http.StatusConflict,
	"SlotConflict":     http.StatusConflict,
	"TableNotFound":    http.StatusNotFound,
	"BookingNotFound":  http.StatusNotFound,
	"StoreUnavailable": http.StatusServiceUnavailable,
}

// StatusFor maps a scheduling error to its HTTP status.
func StatusFor(err error) int {
	if status, ok := kindStatus[reservation.Kind(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := reservation.Kind(err)
	status := StatusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "err", err, "kind", kind,
			"path", r.URL.Path, "request_id", httpx.RequestIDFromContext(r.Context()))
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	httpx.WriteError(w, status, kind, msg)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	httpx.WriteError(w, http.StatusBadRequest, kindInvalidRequest, msg)
}
