package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/model"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/reservation"
)

var day = time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)

func hour(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

func newBooking(tableID int64, start, end int) model.Booking {
	return model.Booking{
		TableID:      tableID,
		Start:        hour(start),
		End:          hour(end),
		PartySize:    2,
		ContactName:  "Ada",
		ContactEmail: "ada@example.com",
		ContactPhone: "0701234567",
	}
}

func TestMemoryStore_InsertRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	t1, _ := s.InsertTable(ctx, model.Table{Seats: 4, IsAvailable: true})
	t2, _ := s.InsertTable(ctx, model.Table{Seats: 4, IsAvailable: true})

	if _, err := s.InsertBooking(ctx, newBooking(t1.ID, 18, 20)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.InsertBooking(ctx, newBooking(t1.ID, 19, 21)); !errors.Is(err, reservation.ErrConstraintConflict) {
		t.Fatalf("expected ErrConstraintConflict, got %v", err)
	}
	if _, err := s.InsertBooking(ctx, newBooking(t1.ID, 20, 21)); err != nil {
		t.Fatalf("touching booking must be accepted: %v", err)
	}
	if _, err := s.InsertBooking(ctx, newBooking(t2.ID, 18, 20)); err != nil {
		t.Fatalf("other table must not conflict: %v", err)
	}
	if _, err := s.InsertBooking(ctx, newBooking(99, 18, 20)); !errors.Is(err, reservation.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown table, got %v", err)
	}
}

func TestMemoryStore_ReplaceExcludesItself(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tbl, _ := s.InsertTable(ctx, model.Table{Seats: 4, IsAvailable: true})
	b, _ := s.InsertBooking(ctx, newBooking(tbl.ID, 18, 20))
	other, _ := s.InsertBooking(ctx, newBooking(tbl.ID, 21, 22))

	moved := b
	moved.End = hour(21)
	got, err := s.ReplaceBooking(ctx, moved)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if !got.End.Equal(hour(21)) || !got.CreatedAt.Equal(b.CreatedAt) {
		t.Fatalf("unexpected replaced booking: %+v", got)
	}

	clash := other
	clash.Start = hour(20)
	if _, err := s.ReplaceBooking(ctx, clash); !errors.Is(err, reservation.ErrConstraintConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if _, err := s.ReplaceBooking(ctx, model.Booking{ID: 404, TableID: tbl.ID, Start: hour(1), End: hour(2)}); !errors.Is(err, reservation.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_DeleteTableCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tbl, _ := s.InsertTable(ctx, model.Table{Seats: 4, IsAvailable: true})
	b, _ := s.InsertBooking(ctx, newBooking(tbl.ID, 18, 20))

	if err := s.DeleteTable(ctx, tbl.ID); err != nil {
		t.Fatalf("delete table: %v", err)
	}
	if _, err := s.GetBooking(ctx, b.ID); !errors.Is(err, reservation.ErrNotFound) {
		t.Fatalf("booking must be removed with its table, got %v", err)
	}
	if err := s.DeleteTable(ctx, tbl.ID); !errors.Is(err, reservation.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStore_SnapshotFiltersWindow(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tbl, _ := s.InsertTable(ctx, model.Table{Seats: 4, IsAvailable: true})
	_, _ = s.InsertBooking(ctx, newBooking(tbl.ID, 10, 12))
	inside, _ := s.InsertBooking(ctx, newBooking(tbl.ID, 13, 15))
	_, _ = s.InsertBooking(ctx, newBooking(tbl.ID, 15, 16))

	tables, bookings, err := s.Snapshot(ctx, hour(12), hour(15))
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	if len(bookings) != 1 || bookings[0].ID != inside.ID {
		t.Fatalf("expected only the overlapping booking, got %+v", bookings)
	}
}
