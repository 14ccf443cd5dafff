package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/lukas99o/restaurant-api/libs/httpx"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/model"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/reservation"
	"github.com/segmentio/kafka-go"
)

const TopicTableAvailabilityChanged = "restaurant.table.availability.changed.v1"

type AvailabilitySetter interface {
	SetAvailability(ctx context.Context, id int64, isAvailable bool) (model.Table, error)
}

// TableAvailabilityHandler applies availability changes published by other restaurant
// systems. Malformed events and unknown tables are logged and dropped.
func TableAvailabilityHandler(tables AvailabilitySetter, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			TableID     int64 `json:"table_id"`
			IsAvailable *bool `json:"is_available"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if payload.TableID <= 0 || payload.IsAvailable == nil {
			logger.Error("missing required event fields", "topic", msg.Topic)
			return nil
		}

		t, err := tables.SetAvailability(ctx, payload.TableID, *payload.IsAvailable)
		if errors.Is(err, reservation.ErrTableNotFound) {
			logger.Warn("availability change for unknown table", "table_id", payload.TableID)
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("table availability applied", "table_id", t.ID, "available", t.IsAvailable,
			"event_id", httpx.RequestIDFromContext(ctx))
		return nil
	}
}
