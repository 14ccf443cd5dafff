package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/model"
)

// TableAdmin manages the restaurant's tables. Changes to an existing table hold its
// lock, so they are ordered against bookings placed through a Scheduler sharing the
// same TableLocks.
type TableAdmin struct {
	store  Store
	caller storeCaller
	locks  *TableLocks
	logger *slog.Logger
}

// NewTableAdmin uses a private lock set when locks is nil.
func NewTableAdmin(store Store, logger *slog.Logger, cfg Config, locks *TableLocks) *TableAdmin {
	if logger == nil {
		logger = slog.Default()
	}
	if locks == nil {
		locks = NewTableLocks()
	}
	cfg = cfg.withDefaults()
	return &TableAdmin{store: store, caller: storeCaller{cfg: cfg, logger: logger}, locks: locks, logger: logger}
}

func (a *TableAdmin) CreateTable(ctx context.Context, seats int, isAvailable bool) (model.Table, error) {
	if seats <= 0 {
		return model.Table{}, ErrInvalidSeats
	}
	t, err := callStore(ctx, a.caller, "InsertTable", func(ctx context.Context) (model.Table, error) {
		return a.store.InsertTable(ctx, model.Table{Seats: seats, IsAvailable: isAvailable})
	})
	if err != nil {
		return model.Table{}, err
	}
	a.logger.Info("table created", "table_id", t.ID, "seats", t.Seats, "available", t.IsAvailable)
	return t, nil
}

func (a *TableAdmin) UpdateTable(ctx context.Context, id int64, seats int, isAvailable bool) (model.Table, error) {
	if seats <= 0 {
		return model.Table{}, ErrInvalidSeats
	}
	unlock := a.locks.lock(id)
	defer unlock()
	return a.update(ctx, model.Table{ID: id, Seats: seats, IsAvailable: isAvailable})
}

// SetAvailability flips the administrative flag and keeps the seat count.
func (a *TableAdmin) SetAvailability(ctx context.Context, id int64, isAvailable bool) (model.Table, error) {
	unlock := a.locks.lock(id)
	defer unlock()

	t, err := a.GetTable(ctx, id)
	if err != nil {
		return model.Table{}, err
	}
	if t.IsAvailable == isAvailable {
		return t, nil
	}
	t.IsAvailable = isAvailable
	return a.update(ctx, t)
}

// DeleteTable removes the table and its bookings. It reports false when the table
// does not exist.
func (a *TableAdmin) DeleteTable(ctx context.Context, id int64) (bool, error) {
	unlock := a.locks.lock(id)
	defer unlock()

	err := callStoreErr(ctx, a.caller, "DeleteTable", func(ctx context.Context) error {
		return a.store.DeleteTable(ctx, id)
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	a.logger.Info("table deleted", "table_id", id)
	return true, nil
}

func (a *TableAdmin) GetTable(ctx context.Context, id int64) (model.Table, error) {
	t, err := callStore(ctx, a.caller, "GetTable", func(ctx context.Context) (model.Table, error) {
		return a.store.GetTable(ctx, id)
	})
	if errors.Is(err, ErrNotFound) {
		return model.Table{}, fmt.Errorf("%w: %d", ErrTableNotFound, id)
	}
	return t, err
}

func (a *TableAdmin) ListTables(ctx context.Context) ([]model.Table, error) {
	return callStore(ctx, a.caller, "ListTables", a.store.ListTables)
}

func (a *TableAdmin) update(ctx context.Context, t model.Table) (model.Table, error) {
	out, err := callStore(ctx, a.caller, "UpdateTable", func(ctx context.Context) (model.Table, error) {
		return a.store.UpdateTable(ctx, t)
	})
	if errors.Is(err, ErrNotFound) {
		return model.Table{}, fmt.Errorf("%w: %d", ErrTableNotFound, t.ID)
	}
	if err != nil {
		return model.Table{}, err
	}
	a.logger.Info("table updated", "table_id", out.ID, "seats", out.Seats, "available", out.IsAvailable)
	return out, nil
}
