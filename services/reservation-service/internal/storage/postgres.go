package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lukas99o/restaurant-api/libs/db"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/model"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/outbox"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/reservation"
)

// PostgresStore persists tables and bookings in Postgres. The bookings_no_overlap
// exclusion constraint rejects overlapping bookings on a table across all replicas.
// Booking writes append the matching lifecycle event to the outbox in the same
// transaction.
type PostgresStore struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

var _ reservation.Store = (*PostgresStore)(nil)

func NewPostgresStore(pool *db.Pool, outboxRepo *outbox.Repository) *PostgresStore {
	return &PostgresStore{pool: pool, outbox: outboxRepo}
}

const bookingColumns = `id, table_id, start_time, end_time, party_size, contact_name, contact_email, contact_phone, created_at, updated_at`

// mapError translates Postgres failures into the store contract errors.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsNoRows(err), db.IsForeignKeyViolation(err):
		return reservation.ErrNotFound
	case db.IsExclusionViolation(err):
		return reservation.ErrConstraintConflict
	default:
		return err
	}
}

func scanTable(row pgx.Row) (model.Table, error) {
	var t model.Table
	err := row.Scan(&t.ID, &t.Seats, &t.IsAvailable)
	return t, err
}

func scanBooking(row pgx.Row) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.TableID, &b.Start, &b.End, &b.PartySize,
		&b.ContactName, &b.ContactEmail, &b.ContactPhone, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	b.Start = b.Start.UTC()
	b.End = b.End.UTC()
	return b, nil
}

func collectTables(rows pgx.Rows) ([]model.Table, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Table, error) {
		return scanTable(row)
	})
	if out == nil && err == nil {
		out = []model.Table{}
	}
	return out, err
}

func collectBookings(rows pgx.Rows) ([]model.Booking, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Booking, error) {
		return scanBooking(row)
	})
	if out == nil && err == nil {
		out = []model.Booking{}
	}
	return out, err
}

func (s *PostgresStore) GetTable(ctx context.Context, id int64) (model.Table, error) {
	t, err := scanTable(s.pool.QueryRow(ctx, `
		SELECT id, seats, is_available FROM dining_tables WHERE id = $1
	`, id))
	return t, mapError(err)
}

func (s *PostgresStore) ListTables(ctx context.Context) ([]model.Table, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, seats, is_available FROM dining_tables ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectTables(rows)
}

func (s *PostgresStore) InsertTable(ctx context.Context, t model.Table) (model.Table, error) {
	out, err := scanTable(s.pool.QueryRow(ctx, `
		INSERT INTO dining_tables (seats, is_available)
		VALUES ($1, $2)
		RETURNING id, seats, is_available
	`, t.Seats, t.IsAvailable))
	return out, mapError(err)
}

func (s *PostgresStore) UpdateTable(ctx context.Context, t model.Table) (model.Table, error) {
	out, err := scanTable(s.pool.QueryRow(ctx, `
		UPDATE dining_tables
		SET seats = $2,
			is_available = $3,
			updated_at = now()
		WHERE id = $1
		RETURNING id, seats, is_available
	`, t.ID, t.Seats, t.IsAvailable))
	return out, mapError(err)
}

// DeleteTable cascades to the table's bookings. No cancellation events are emitted for
// them.
func (s *PostgresStore) DeleteTable(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM dining_tables WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return reservation.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetBooking(ctx context.Context, id int64) (model.Booking, error) {
	b, err := scanBooking(s.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+` FROM bookings WHERE id = $1
	`, id))
	return b, mapError(err)
}

func (s *PostgresStore) ListBookings(ctx context.Context) ([]model.Booking, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY start_time, id`)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (s *PostgresStore) ListBookingsForTable(ctx context.Context, tableID int64) ([]model.Booking, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE table_id = $1
		ORDER BY start_time, id
	`, tableID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (s *PostgresStore) InsertBooking(ctx context.Context, b model.Booking) (model.Booking, error) {
	var out model.Booking
	err := s.pool.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		out, err = scanBooking(tx.QueryRow(ctx, `
			INSERT INTO bookings
				(table_id, start_time, end_time, party_size, contact_name, contact_email, contact_phone)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+bookingColumns,
			b.TableID, b.Start, b.End, b.PartySize, b.ContactName, b.ContactEmail, b.ContactPhone))
		if err != nil {
			return err
		}
		return s.appendEvent(ctx, tx, outbox.EventBookingConfirmed, out)
	})
	return out, mapError(err)
}

func (s *PostgresStore) ReplaceBooking(ctx context.Context, b model.Booking) (model.Booking, error) {
	var out model.Booking
	err := s.pool.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		out, err = scanBooking(tx.QueryRow(ctx, `
			UPDATE bookings
			SET table_id = $2,
				start_time = $3,
				end_time = $4,
				party_size = $5,
				contact_name = $6,
				contact_email = $7,
				contact_phone = $8,
				updated_at = now()
			WHERE id = $1
			RETURNING `+bookingColumns,
			b.ID, b.TableID, b.Start, b.End, b.PartySize, b.ContactName, b.ContactEmail, b.ContactPhone))
		if err != nil {
			return err
		}
		return s.appendEvent(ctx, tx, outbox.EventBookingRescheduled, out)
	})
	return out, mapError(err)
}

func (s *PostgresStore) DeleteBooking(ctx context.Context, id int64) error {
	err := s.pool.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		deleted, err := scanBooking(tx.QueryRow(ctx, `
			DELETE FROM bookings WHERE id = $1
			RETURNING `+bookingColumns, id))
		if err != nil {
			return err
		}
		return s.appendEvent(ctx, tx, outbox.EventBookingCancelled, deleted)
	})
	return mapError(err)
}

// Snapshot reads tables and the window's bookings in one read-only repeatable read
// transaction.
func (s *PostgresStore) Snapshot(ctx context.Context, start, end time.Time) ([]model.Table, []model.Booking, error) {
	var (
		tables   []model.Table
		bookings []model.Booking
	)
	err := s.pool.InTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT id, seats, is_available FROM dining_tables ORDER BY id`)
		if err != nil {
			return err
		}
		if tables, err = collectTables(rows); err != nil {
			return err
		}

		rows, err = tx.Query(ctx, `
			SELECT `+bookingColumns+`
			FROM bookings
			WHERE start_time < $2 AND end_time > $1
			ORDER BY table_id, start_time
		`, start, end)
		if err != nil {
			return err
		}
		bookings, err = collectBookings(rows)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return tables, bookings, nil
}

func (s *PostgresStore) appendEvent(ctx context.Context, tx pgx.Tx, eventType string, b model.Booking) error {
	evt, err := outbox.BookingEvent(eventType, b)
	if err != nil {
		return err
	}
	return s.outbox.Insert(ctx, tx, evt)
}
