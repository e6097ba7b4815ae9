package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/streetfood-connect/internal/notification/domain"
	"github.com/dmehra2102/streetfood-connect/pkg/tracing"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Handler interface {
	Handle(ctx context.Context, ev domain.Event) error
}

type Deduper interface {
	Key(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
}

type Consumer struct {
	log    *slog.Logger
	reader Reader
	svc    Handler
	idem   Deduper
	tracer trace.Tracer
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

func NewConsumer(log *slog.Logger, reader Reader, svc Handler, idem Deduper) *Consumer {
	return &Consumer{
		log:    log.With("component", "notification-consumer"),
		reader: reader,
		svc:    svc,
		idem:   idem,
		tracer: otel.Tracer("notification-consumer"),
	}
}

// Run consumes until ctx is cancelled or the reader fails. Every fetched
// message is committed, including ones that could not be decoded or
// delivered; notifications are best effort. When the dedup store is down the
// message is handled anyway, so a redelivery may notify twice.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Warn("idempotency check failed, handling anyway", "key", key, "err", err)
			seen = false
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			c.commit(ctx, msg)
			continue
		}

		c.handle(ctx, msg)
		c.commit(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeGroupOrderEvent",
		trace.WithAttributes(attribute.String("event_type", tracing.HeaderValue(msg.Headers, "event_type"))))
	defer span.End()

	var event domain.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.log.Error("unmarshal failed", "offset", msg.Offset, "err", err)
		return
	}
	if err := c.svc.Handle(msgCtx, event); err != nil {
		span.RecordError(err)
		c.log.Error("notification delivery incomplete", "group_order_id", event.GroupOrderID, "type", event.Type, "err", err)
		return
	}
	c.log.Info("notification handled", "group_order_id", event.GroupOrderID, "type", event.Type)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.log.Warn("commit failed", "offset", msg.Offset, "err", err)
	}
}
