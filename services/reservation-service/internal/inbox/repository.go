package inbox

import (
	"context"
	"fmt"
	"time"

	"github.com/lukas99o/restaurant-api/libs/db"
)

// Repository remembers which Kafka events this service has already applied, keyed by
// the producer's event id.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record claims eventID. It reports false when an earlier delivery already claimed it.
func (r *Repository) Record(ctx context.Context, eventID, eventType string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("inbox record %s: %w", eventID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Forget releases a claim so a redelivery is applied again.
func (r *Repository) Forget(ctx context.Context, eventID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM inbox_events WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("inbox forget %s: %w", eventID, err)
	}
	return nil
}

// Prune drops claims received before cutoff. Kafka retention bounds how late a
// redelivery can arrive, so older claims no longer protect anything.
func (r *Repository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inbox_events WHERE received_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("inbox prune: %w", err)
	}
	return tag.RowsAffected(), nil
}
