package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/lukas99o/restaurant-api/libs/httpx"
	"github.com/lukas99o/restaurant-api/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// Inbox de-duplicates deliveries by event id.
type Inbox interface {
	Record(ctx context.Context, eventID, eventType string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// MessageReader is the part of *kafka.Reader the consumer needs. Offsets are committed
// explicitly once a message is settled.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Outcome is what Process did with one delivery.
type Outcome int

const (
	Applied Outcome = iota
	Duplicate
	// Dropped messages carry no event id and can never be de-duplicated.
	Dropped
	// Failed deliveries left no inbox claim behind and may be retried.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Duplicate:
		return "duplicate"
	case Dropped:
		return "dropped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

var errRetry = errors.New("delivery failed")

type Config struct {
	Brokers string
	GroupID string
	Topic   string
	// MaxAttempts bounds how often one message is processed before its offset is
	// committed anyway. Zero means 5.
	MaxAttempts int
	// RetryInterval is the first delay between attempts. Zero means 200ms.
	RetryInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 200 * time.Millisecond
	}
	return c
}

type Consumer struct {
	reader  MessageReader
	logger  *slog.Logger
	inbox   Inbox
	handler Handler
	cfg     Config
}

func New(logger *slog.Logger, inbox Inbox, cfg Config, handler Handler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  kafkax.SplitBrokers(cfg.Brokers),
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return NewWithReader(logger, inbox, reader, cfg, handler)
}

func NewWithReader(logger *slog.Logger, inbox Inbox, reader MessageReader, cfg Config, handler Handler) *Consumer {
	return &Consumer{
		reader:  reader,
		logger:  logger,
		inbox:   inbox,
		handler: handler,
		cfg:     cfg.withDefaults(),
	}
}

// Run fetches until ctx ends. Each message is settled before its offset is committed,
// so a crash mid-message means a redelivery rather than a lost event.
func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	fetchBackoff := backoff.NewExponentialBackOff()
	fetchBackoff.InitialInterval = time.Second
	fetchBackoff.MaxInterval = 30 * time.Second

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := fetchBackoff.NextBackOff()
			c.logger.Error("kafka fetch failed", "err", err, "retry_in", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		fetchBackoff.Reset()

		if !c.settle(ctx, msg) {
			return
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("kafka commit failed", "err", err, "topic", msg.Topic,
				"partition", msg.Partition, "offset", msg.Offset)
		}
	}
}

// settle processes msg until it no longer fails or attempts run out. It reports false
// only when ctx ended first, in which case the offset must stay uncommitted.
func (c *Consumer) settle(ctx context.Context, msg kafka.Message) bool {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RetryInterval

	outcome, err := backoff.Retry(ctx, func() (Outcome, error) {
		out := c.Process(ctx, msg)
		if out == Failed {
			return out, errRetry
		}
		return out, nil
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(uint(c.cfg.MaxAttempts)))
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		c.logger.Error("event abandoned after retries", "topic", msg.Topic, "partition", msg.Partition,
			"offset", msg.Offset, "attempts", c.cfg.MaxAttempts)
		return true
	}
	c.logger.Debug("event settled", "topic", msg.Topic, "offset", msg.Offset, "outcome", outcome.String())
	return true
}

// Process makes one attempt at msg. The inbox claim is taken before the handler runs
// and released again if the handler fails.
func (c *Consumer) Process(ctx context.Context, msg kafka.Message) Outcome {
	meta := kafkax.ExtractEventMeta(msg)
	ctx, span := otel.Tracer("kafka").Start(kafkax.ExtractTraceContext(ctx, msg), "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.String("messaging.message.id", meta.EventID),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		),
	)
	defer span.End()

	if meta.EventID == "" {
		c.logger.Error("event without id dropped", "topic", msg.Topic, "offset", msg.Offset)
		return Dropped
	}
	ctx = httpx.ContextWithRequestID(ctx, meta.EventID)
	log := c.logger.With("event_id", meta.EventID, "event_type", meta.EventType)
	if !meta.OccurredAt.IsZero() {
		log.Debug("event received", "lag", time.Since(meta.OccurredAt))
	}

	claimed, err := c.inbox.Record(ctx, meta.EventID, meta.EventType)
	if err != nil {
		log.Error("inbox record failed", "err", err)
		span.SetStatus(codes.Error, "inbox")
		span.RecordError(err)
		return Failed
	}
	if !claimed {
		log.Info("duplicate event ignored")
		return Duplicate
	}

	if err := c.handler(ctx, msg); err != nil {
		log.Error("event handler failed", "err", err)
		span.SetStatus(codes.Error, "handler")
		span.RecordError(err)
		if ferr := c.inbox.Forget(ctx, meta.EventID); ferr != nil {
			log.Error("inbox forget failed", "err", ferr)
		}
		return Failed
	}
	return Applied
}
