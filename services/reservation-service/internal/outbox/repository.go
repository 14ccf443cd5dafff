package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	otelx "github.com/lukas99o/restaurant-api/libs/otel"
)

// Querier is satisfied by pgx.Tx and *db.Pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Record is an outbox row as the publisher sees it.
type Record struct {
	ID            int64
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Trace         otelx.StoredTrace
	CreatedAt     time.Time
}

// Backlog describes rows still waiting for Kafka.
type Backlog struct {
	Pending int64
	Oldest  time.Time
}

// Age is how long the oldest pending row has waited. Zero when nothing is pending.
func (b Backlog) Age(now time.Time) time.Duration {
	if b.Pending == 0 || b.Oldest.IsZero() {
		return 0
	}
	return now.Sub(b.Oldest)
}

// Insert must run in the transaction that changed the booking, so the event commits or
// rolls back with it. The caller's span is stored for the publisher to continue.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, evt Event) error {
	trace := otelx.CaptureTrace(ctx)
	if _, err := tx.Exec(ctx, `
		INSERT INTO outbox_events (event_id, aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), evt.AggregateType, evt.AggregateID, evt.EventType, evt.Payload,
		trace.Traceparent, trace.Tracestate); err != nil {
		return fmt.Errorf("outbox insert %s: %w", evt.EventType, err)
	}
	return nil
}

// FetchUnpublished locks up to limit pending rows in id order. Rows locked by another
// publisher are skipped, so replicas can relay concurrently.
func (r *Repository) FetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, event_id::text, aggregate_type, aggregate_id, event_type, payload,
		       traceparent, tracestate, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("outbox fetch: %w", err)
	}
	return pgx.CollectRows(rows, scanRecord)
}

func scanRecord(row pgx.CollectableRow) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.EventID, &rec.AggregateType, &rec.AggregateID, &rec.EventType, &rec.Payload,
		&rec.Trace.Traceparent, &rec.Trace.Tracestate, &rec.CreatedAt,
	)
	return rec, err
}

func (r *Repository) MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tag, err := tx.Exec(ctx, `UPDATE outbox_events SET published_at = now() WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("outbox mark published: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("outbox mark published: updated %d of %d rows", tag.RowsAffected(), len(ids))
	}
	return nil
}

// Pending reports the unpublished backlog.
func (r *Repository) Pending(ctx context.Context, q Querier) (Backlog, error) {
	var (
		b      Backlog
		oldest *time.Time
	)
	err := q.QueryRow(ctx, `
		SELECT count(*), min(created_at)
		FROM outbox_events
		WHERE published_at IS NULL
	`).Scan(&b.Pending, &oldest)
	if err != nil {
		return Backlog{}, fmt.Errorf("outbox backlog: %w", err)
	}
	if oldest != nil {
		b.Oldest = *oldest
	}
	return b, nil
}

// PurgePublished deletes rows published before cutoff. Pending rows are never touched.
func (r *Repository) PurgePublished(ctx context.Context, q Querier, cutoff time.Time) (int64, error) {
	tag, err := q.Exec(ctx, `
		DELETE FROM outbox_events
		WHERE published_at IS NOT NULL AND published_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("outbox purge: %w", err)
	}
	return tag.RowsAffected(), nil
}
