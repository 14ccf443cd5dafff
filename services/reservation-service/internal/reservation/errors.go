package reservation

import (
	"errors"

	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/availability"
)

var (
	ErrInvalidWindow = availability.ErrInvalidWindow
	ErrWindowTooSoon = availability.ErrWindowTooSoon
	ErrWindowTooFar  = availability.ErrWindowTooFar

	ErrTableNotFound    = errors.New("table not found")
	ErrTableUnavailable = errors.New("table is not available for booking")
	ErrInvalidPartySize = errors.New("party size must be positive")
	ErrPartyTooLarge    = errors.New("party size exceeds table seats")
	ErrSlotConflict     = errors.New("table is already booked for an overlapping window")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidContact   = errors.New("contact name, email and phone are required")
	ErrInvalidSeats     = errors.New("seats must be positive")
)

// Kind names the error category for API responses. Narrow window kinds are checked
// before the family they wrap. Unknown errors map to "Internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrWindowTooSoon):
		return "WindowTooSoon"
	case errors.Is(err, ErrWindowTooFar):
		return "WindowTooFar"
	case errors.Is(err, ErrInvalidWindow):
		return "InvalidWindow"
	case errors.Is(err, ErrTableNotFound):
		return "TableNotFound"
	case errors.Is(err, ErrTableUnavailable):
		return "TableUnavailable"
	case errors.Is(err, ErrInvalidPartySize):
		return "InvalidPartySize"
	case errors.Is(err, ErrPartyTooLarge):
		return "PartyTooLarge"
	case errors.Is(err, ErrSlotConflict):
		return "SlotConflict"
	case errors.Is(err, ErrBookingNotFound):
		return "BookingNotFound"
	case errors.Is(err, ErrStoreUnavailable):
		return "StoreUnavailable"
	case errors.Is(err, ErrInvalidContact):
		return "InvalidContact"
	case errors.Is(err, ErrInvalidSeats):
		return "InvalidSeats"
	default:
		return "Internal"
	}
}
