package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/availability"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/model"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/reservation"
)

// MemoryStore keeps tables and bookings in process memory. It enforces the same
// per-table overlap rule as the Postgres exclusion constraint.
type MemoryStore struct {
	mu          sync.RWMutex
	tables      map[int64]model.Table
	bookings    map[int64]model.Booking
	nextTable   int64
	nextBooking int64
	now         func() time.Time
}

var _ reservation.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:   make(map[int64]model.Table),
		bookings: make(map[int64]model.Booking),
		now:      time.Now,
	}
}

func (s *MemoryStore) GetTable(_ context.Context, id int64) (model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[id]
	if !ok {
		return model.Table{}, reservation.ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) ListTables(_ context.Context) ([]model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedTables(), nil
}

func (s *MemoryStore) InsertTable(_ context.Context, t model.Table) (model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTable++
	t.ID = s.nextTable
	s.tables[t.ID] = t
	return t, nil
}

func (s *MemoryStore) UpdateTable(_ context.Context, t model.Table) (model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[t.ID]; !ok {
		return model.Table{}, reservation.ErrNotFound
	}
	s.tables[t.ID] = t
	return t, nil
}

// DeleteTable also drops the table's bookings.
func (s *MemoryStore) DeleteTable(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[id]; !ok {
		return reservation.ErrNotFound
	}
	delete(s.tables, id)
	for bid, b := range s.bookings {
		if b.TableID == id {
			delete(s.bookings, bid)
		}
	}
	return nil
}

func (s *MemoryStore) GetBooking(_ context.Context, id int64) (model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, reservation.ErrNotFound
	}
	return b, nil
}

func (s *MemoryStore) ListBookings(_ context.Context) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterBookings(func(model.Booking) bool { return true }), nil
}

func (s *MemoryStore) ListBookingsForTable(_ context.Context, tableID int64) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterBookings(func(b model.Booking) bool { return b.TableID == tableID }), nil
}

func (s *MemoryStore) InsertBooking(_ context.Context, b model.Booking) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[b.TableID]; !ok {
		return model.Booking{}, reservation.ErrNotFound
	}
	if s.overlapsLocked(b, 0) {
		return model.Booking{}, reservation.ErrConstraintConflict
	}
	s.nextBooking++
	now := s.now().UTC()
	b.ID = s.nextBooking
	b.CreatedAt = now
	b.UpdatedAt = now
	s.bookings[b.ID] = b
	return b, nil
}

func (s *MemoryStore) ReplaceBooking(_ context.Context, b model.Booking) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.bookings[b.ID]
	if !ok {
		return model.Booking{}, reservation.ErrNotFound
	}
	if _, ok := s.tables[b.TableID]; !ok {
		return model.Booking{}, reservation.ErrNotFound
	}
	if s.overlapsLocked(b, b.ID) {
		return model.Booking{}, reservation.ErrConstraintConflict
	}
	b.CreatedAt = prev.CreatedAt
	b.UpdatedAt = s.now().UTC()
	s.bookings[b.ID] = b
	return b, nil
}

func (s *MemoryStore) DeleteBooking(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return reservation.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *MemoryStore) Snapshot(_ context.Context, start, end time.Time) ([]model.Table, []model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bookings := s.filterBookings(func(b model.Booking) bool {
		return availability.Overlaps(start, end, b.Start, b.End)
	})
	return s.sortedTables(), bookings, nil
}

func (s *MemoryStore) overlapsLocked(candidate model.Booking, exclude int64) bool {
	for _, b := range s.bookings {
		if b.ID == exclude || b.TableID != candidate.TableID {
			continue
		}
		if availability.Overlaps(candidate.Start, candidate.End, b.Start, b.End) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) sortedTables() []model.Table {
	out := make([]model.Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b model.Table) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *MemoryStore) filterBookings(keep func(model.Booking) bool) []model.Booking {
	out := []model.Booking{}
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b model.Booking) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
