package availability

import (
	"time"

	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/model"
)

// AvailableTables returns the tables that are administratively available and have no
// booking overlapping [start,end), in source order. An unusable window yields an
// empty result rather than an error.
func AvailableTables(start, end time.Time, tables []model.Table, bookings []model.Booking, now time.Time) []model.Table {
	out := []model.Table{}
	if ValidateWindow(start, end, now) != nil {
		return out
	}

	booked := make(map[int64]struct{}, len(bookings))
	for _, b := range bookings {
		if Overlaps(start, end, b.Start, b.End) {
			booked[b.TableID] = struct{}{}
		}
	}

	for _, t := range tables {
		if !t.IsAvailable {
			continue
		}
		if _, taken := booked[t.ID]; taken {
			continue
		}
		out = append(out, t)
	}
	return out
}

// FirstConflict returns the first booking in existing that overlaps [start,end),
// ignoring the booking with id exclude (0 excludes nothing).
func FirstConflict(start, end time.Time, existing []model.Booking, exclude int64) (model.Booking, bool) {
	for _, b := range existing {
		if exclude != 0 && b.ID == exclude {
			continue
		}
		if Overlaps(start, end, b.Start, b.End) {
			return b, true
		}
	}
	return model.Booking{}, false
}
