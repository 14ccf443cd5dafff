package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/availability"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request is the full payload of a create or reschedule.
type Request struct {
	TableID      int64
	Start        time.Time
	End          time.Time
	PartySize    int
	ContactName  string
	ContactEmail string
	ContactPhone string
}

// Clock returns the reference time for window validation.
type Clock func() time.Time

// Scheduler creates, reschedules and cancels bookings without ever letting two bookings
// on one table overlap. Writes for a table are serialized in-process, and the table's
// own checks run under the same lock. The store's overlap constraint covers other
// replicas.
type Scheduler struct {
	store  Store
	clock  Clock
	cfg    Config
	locks  *TableLocks
	caller storeCaller
	logger *slog.Logger
	tracer trace.Tracer
}

type Option func(*Scheduler)

// WithTableLocks shares l with a TableAdmin so availability changes and deletes wait
// for in-flight bookings on the same table.
func WithTableLocks(l *TableLocks) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.locks = l
		}
	}
}

func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

func NewScheduler(store Store, logger *slog.Logger, cfg Config, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	s := &Scheduler{
		store:  store,
		clock:  time.Now,
		cfg:    cfg,
		locks:  NewTableLocks(),
		caller: storeCaller{cfg: cfg, logger: logger},
		logger: logger,
		tracer: otel.Tracer("reservation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) now() time.Time {
	return s.clock().UTC()
}

// Create validates req and stores a new booking.
func (s *Scheduler) Create(ctx context.Context, req Request) (model.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.create", trace.WithAttributes(
		attribute.Int64("table.id", req.TableID),
	))
	defer span.End()

	candidate, err := s.validate(req)
	if err != nil {
		return model.Booking{}, endSpan(span, err)
	}

	unlock := s.locks.lock(candidate.TableID)
	defer unlock()

	if err := s.checkTable(ctx, req); err != nil {
		return model.Booking{}, endSpan(span, err)
	}
	booking, err := s.commit(ctx, candidate, func(ctx context.Context, b model.Booking) (model.Booking, error) {
		return s.store.InsertBooking(ctx, b)
	})
	if errors.Is(err, ErrNotFound) {
		// The table went away between the check and the write.
		err = fmt.Errorf("%w: %d", ErrTableNotFound, candidate.TableID)
	}
	if err != nil {
		return model.Booking{}, endSpan(span, err)
	}
	span.SetAttributes(attribute.Int64("booking.id", booking.ID))
	s.logger.Info("booking confirmed", "booking_id", booking.ID, "table_id", booking.TableID,
		"start", booking.Start, "end", booking.End)
	return booking, nil
}

// Reschedule replaces booking id with the window, table and contact in req, validated
// as if it were new. The booking never conflicts with its own previous window.
func (s *Scheduler) Reschedule(ctx context.Context, id int64, req Request) (model.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.reschedule", trace.WithAttributes(
		attribute.Int64("booking.id", id),
		attribute.Int64("table.id", req.TableID),
	))
	defer span.End()

	existing, err := callStore(ctx, s.caller, "GetBooking", func(ctx context.Context) (model.Booking, error) {
		return s.store.GetBooking(ctx, id)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = fmt.Errorf("%w: %d", ErrBookingNotFound, id)
		}
		return model.Booking{}, endSpan(span, err)
	}

	candidate, err := s.validate(req)
	if err != nil {
		return model.Booking{}, endSpan(span, err)
	}
	candidate.ID = existing.ID
	candidate.CreatedAt = existing.CreatedAt

	unlock := s.locks.lock(existing.TableID, candidate.TableID)
	defer unlock()

	if err := s.checkTable(ctx, req); err != nil {
		return model.Booking{}, endSpan(span, err)
	}
	booking, err := s.commit(ctx, candidate, func(ctx context.Context, b model.Booking) (model.Booking, error) {
		return s.store.ReplaceBooking(ctx, b)
	})
	if errors.Is(err, ErrNotFound) {
		err = s.missingOnReplace(ctx, id, candidate.TableID)
	}
	if err != nil {
		return model.Booking{}, endSpan(span, err)
	}
	s.logger.Info("booking rescheduled", "booking_id", booking.ID, "table_id", booking.TableID,
		"previous_table_id", existing.TableID, "start", booking.Start, "end", booking.End)
	return booking, nil
}

// Cancel deletes booking id. It reports false without error when the booking does not
// exist, including when a concurrent cancel removed it first.
func (s *Scheduler) Cancel(ctx context.Context, id int64) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.cancel", trace.WithAttributes(
		attribute.Int64("booking.id", id),
	))
	defer span.End()

	if _, err := callStore(ctx, s.caller, "GetBooking", func(ctx context.Context) (model.Booking, error) {
		return s.store.GetBooking(ctx, id)
	}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, endSpan(span, err)
	}

	err := callStoreErr(ctx, s.caller, "DeleteBooking", func(ctx context.Context) error {
		return s.store.DeleteBooking(ctx, id)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, endSpan(span, err)
	}
	s.logger.Info("booking cancelled", "booking_id", id)
	return true, nil
}

// AvailableTables lists the tables free for the whole of [start,end). An unusable
// window yields an empty list, not an error.
func (s *Scheduler) AvailableTables(ctx context.Context, start, end time.Time) ([]model.Table, error) {
	now := s.now()
	if availability.ValidateWindow(start, end, now) != nil {
		return []model.Table{}, nil
	}

	type snapshot struct {
		tables   []model.Table
		bookings []model.Booking
	}
	snap, err := callStore(ctx, s.caller, "Snapshot", func(ctx context.Context) (snapshot, error) {
		tables, bookings, err := s.store.Snapshot(ctx, start, end)
		return snapshot{tables: tables, bookings: bookings}, err
	})
	if err != nil {
		return nil, err
	}
	return availability.AvailableTables(start, end, snap.tables, snap.bookings, now), nil
}

func (s *Scheduler) Get(ctx context.Context, id int64) (model.Booking, error) {
	b, err := callStore(ctx, s.caller, "GetBooking", func(ctx context.Context) (model.Booking, error) {
		return s.store.GetBooking(ctx, id)
	})
	if errors.Is(err, ErrNotFound) {
		return model.Booking{}, fmt.Errorf("%w: %d", ErrBookingNotFound, id)
	}
	return b, err
}

func (s *Scheduler) List(ctx context.Context) ([]model.Booking, error) {
	return callStore(ctx, s.caller, "ListBookings", s.store.ListBookings)
}

func (s *Scheduler) ListForTable(ctx context.Context, tableID int64) ([]model.Booking, error) {
	if _, err := s.getTable(ctx, tableID); err != nil {
		return nil, err
	}
	return callStore(ctx, s.caller, "ListBookingsForTable", func(ctx context.Context) ([]model.Booking, error) {
		return s.store.ListBookingsForTable(ctx, tableID)
	})
}

// missingOnReplace tells apart the two rows a replace can lose: the booking itself or
// its target table.
func (s *Scheduler) missingOnReplace(ctx context.Context, bookingID, tableID int64) error {
	_, err := callStore(ctx, s.caller, "GetBooking", func(ctx context.Context) (model.Booking, error) {
		return s.store.GetBooking(ctx, bookingID)
	})
	switch {
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %d", ErrBookingNotFound, bookingID)
	case err != nil:
		return err
	default:
		return fmt.Errorf("%w: %d", ErrTableNotFound, tableID)
	}
}

// validate runs the checks that need no store access and builds the candidate.
func (s *Scheduler) validate(req Request) (model.Booking, error) {
	if err := availability.ValidateWindow(req.Start, req.End, s.now()); err != nil {
		return model.Booking{}, err
	}

	b := model.Booking{
		TableID:      req.TableID,
		Start:        req.Start.UTC(),
		End:          req.End.UTC(),
		PartySize:    req.PartySize,
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
	}
	if b.ContactName == "" || b.ContactEmail == "" || b.ContactPhone == "" {
		return model.Booking{}, ErrInvalidContact
	}
	return b, nil
}

// checkTable runs the checks against the target table. The caller holds its lock.
func (s *Scheduler) checkTable(ctx context.Context, req Request) error {
	table, err := s.getTable(ctx, req.TableID)
	if err != nil {
		return err
	}
	if !table.IsAvailable {
		return fmt.Errorf("%w: %d", ErrTableUnavailable, table.ID)
	}
	if req.PartySize <= 0 {
		return ErrInvalidPartySize
	}
	if req.PartySize > table.Seats {
		return fmt.Errorf("%w: party of %d, table %d seats %d", ErrPartyTooLarge, req.PartySize, table.ID, table.Seats)
	}
	return nil
}

func (s *Scheduler) getTable(ctx context.Context, id int64) (model.Table, error) {
	t, err := callStore(ctx, s.caller, "GetTable", func(ctx context.Context) (model.Table, error) {
		return s.store.GetTable(ctx, id)
	})
	if errors.Is(err, ErrNotFound) {
		return model.Table{}, fmt.Errorf("%w: %d", ErrTableNotFound, id)
	}
	return t, err
}

// commit re-reads the table's bookings, rejects an overlap and writes the candidate.
// A write refused by the store's overlap constraint starts over, up to
// MaxConflictRetries more times. The caller holds the table lock.
func (s *Scheduler) commit(ctx context.Context, candidate model.Booking, write func(context.Context, model.Booking) (model.Booking, error)) (model.Booking, error) {
	for attempt := 0; ; attempt++ {
		existing, err := callStore(ctx, s.caller, "ListBookingsForTable", func(ctx context.Context) ([]model.Booking, error) {
			return s.store.ListBookingsForTable(ctx, candidate.TableID)
		})
		if err != nil {
			return model.Booking{}, err
		}
		if other, hit := availability.FirstConflict(candidate.Start, candidate.End, existing, candidate.ID); hit {
			return model.Booking{}, fmt.Errorf("%w: table %d is held by booking %d from %s to %s",
				ErrSlotConflict, candidate.TableID, other.ID,
				other.Start.Format(time.RFC3339), other.End.Format(time.RFC3339))
		}

		saved, err := callStore(ctx, s.caller, "WriteBooking", func(ctx context.Context) (model.Booking, error) {
			return write(ctx, candidate)
		})
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, ErrConstraintConflict) {
			return model.Booking{}, err
		}
		if attempt >= s.cfg.MaxConflictRetries {
			return model.Booking{}, fmt.Errorf("%w: table %d (store rejected %d attempts)", ErrSlotConflict, candidate.TableID, attempt+1)
		}
		s.logger.Info("store rejected overlapping booking; rechecking", "table_id", candidate.TableID, "attempt", attempt+1)
	}
}

func endSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, Kind(err))
	return err
}
