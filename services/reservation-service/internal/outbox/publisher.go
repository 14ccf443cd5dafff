package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lukas99o/restaurant-api/libs/db"
	"github.com/lukas99o/restaurant-api/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher relays committed outbox rows to Kafka, one topic per event type.
type Publisher struct {
	pool      *db.Pool
	repo      *Repository
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
	warnAge   time.Duration
	now       func() time.Time
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
	// BacklogWarnAge is how long a row may wait before the backlog is logged as a
	// warning. Zero means one minute.
	BacklogWarnAge time.Duration
}

const backlogCheckEvery = time.Minute

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.BacklogWarnAge <= 0 {
		cfg.BacklogWarnAge = time.Minute
	}
	return &Publisher{
		pool:      pool,
		repo:      repo,
		logger:    logger,
		brokers:   kafkax.SplitBrokers(cfg.Brokers),
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
		warnAge:   cfg.BacklogWarnAge,
		now:       time.Now,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()
	backlog := time.NewTicker(backlogCheckEvery)
	defer backlog.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-backlog.C:
			if err := p.CheckBacklog(ctx); err != nil {
				p.logger.Error("outbox backlog check failed", "err", err)
			}
		case <-ticker.C:
			n, err := p.PublishBatch(ctx, writer)
			if err != nil {
				p.logger.Error("outbox publish failed", "err", err)
				continue
			}
			if n > 0 {
				p.logger.Debug("outbox events published", "count", n)
			}
		}
	}
}

// PublishBatch sends up to one batch of unpublished events and marks them published in
// the same transaction that locked them.
func (p *Publisher) PublishBatch(ctx context.Context, writer MessageWriter) (int, error) {
	published := 0
	err := p.pool.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
		if err != nil || len(records) == 0 {
			return err
		}

		msgs := make([]kafka.Message, 0, len(records))
		ids := make([]int64, 0, len(records))
		for _, r := range records {
			msgs = append(msgs, ToMessage(ctx, r))
			ids = append(ids, r.ID)
		}
		if err := writer.WriteMessages(ctx, msgs...); err != nil {
			return err
		}
		published = len(records)
		return p.repo.MarkPublished(ctx, tx, ids)
	})
	return published, err
}

// CheckBacklog logs the pending count, as a warning once the oldest row has waited
// longer than the configured age.
func (p *Publisher) CheckBacklog(ctx context.Context) error {
	b, err := p.repo.Pending(ctx, p.pool)
	if err != nil {
		return err
	}
	if b.Pending == 0 {
		return nil
	}
	age := b.Age(p.now())
	level := slog.LevelDebug
	if age > p.warnAge {
		level = slog.LevelWarn
	}
	p.logger.Log(ctx, level, "outbox backlog", "pending", b.Pending, "oldest_age", age.Round(time.Second))
	return nil
}

// ToMessage keys the message by aggregate so all events of one booking land on the same
// partition, and restores the trace context captured when the row was written.
func ToMessage(ctx context.Context, r Record) kafka.Message {
	msgCtx := r.Trace.Restore(ctx)
	headers := kafkax.MetaHeaders(kafkax.EventMeta{EventID: r.EventID, EventType: r.EventType, OccurredAt: r.CreatedAt})
	return kafka.Message{
		Topic:   r.EventType,
		Key:     []byte(r.AggregateType + ":" + r.AggregateID),
		Value:   r.Payload,
		Headers: kafkax.InjectTraceHeaders(msgCtx, headers),
	}
}
