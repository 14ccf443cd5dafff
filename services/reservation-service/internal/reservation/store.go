package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/model"
)

// Store errors. Implementations return (or wrap) these; anything else is treated as a
// transient infrastructure failure.
var (
	ErrNotFound           = errors.New("not found")
	ErrConstraintConflict = errors.New("overlapping booking exists for table")
)

// Store is the persistence contract of the scheduling core. InsertBooking and
// ReplaceBooking must reject a booking that overlaps another booking on the same table
// with ErrConstraintConflict.
type Store interface {
	GetTable(ctx context.Context, id int64) (model.Table, error)
	ListTables(ctx context.Context) ([]model.Table, error)
	InsertTable(ctx context.Context, t model.Table) (model.Table, error)
	UpdateTable(ctx context.Context, t model.Table) (model.Table, error)
	DeleteTable(ctx context.Context, id int64) error

	GetBooking(ctx context.Context, id int64) (model.Booking, error)
	ListBookings(ctx context.Context) ([]model.Booking, error)
	ListBookingsForTable(ctx context.Context, tableID int64) ([]model.Booking, error)
	InsertBooking(ctx context.Context, b model.Booking) (model.Booking, error)
	ReplaceBooking(ctx context.Context, b model.Booking) (model.Booking, error)
	DeleteBooking(ctx context.Context, id int64) error

	// Snapshot returns all tables and the bookings overlapping [start,end) as one
	// consistent read.
	Snapshot(ctx context.Context, start, end time.Time) ([]model.Table, []model.Booking, error)
}
