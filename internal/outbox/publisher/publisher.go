package publisher

import (
	"context"
	"time"

	"github.com/21521147/book-hunter-project/internal/order/repository"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Topic carries order lifecycle events out of the order store.
const Topic = "order-events"

// EventSource is the slice of the order store the poller drains.
type EventSource interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*repository.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventID int64) error
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller drains unprocessed outbox rows into Kafka. Publishing is
// at-least-once: a crash between publish and mark re-sends the event, so
// consumers must tolerate replays.
type OutboxPoller struct {
	tick      time.Duration
	batchSize int
	source    EventSource
	writer    kafkaWriter
	logger    *zap.Logger
}

func NewOutboxPoller(source EventSource, logger *zap.Logger, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		tick:      time.Second,
		batchSize: 100,
		source:    source,
		writer:    w,
		logger:    logger,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	if closer, ok := p.writer.(*kafka.Writer); ok {
		return closer.Close()
	}
	return nil
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.source.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if errPublish := p.publishToKafka(ctx, event); errPublish != nil {
			p.logger.Error("failed to publish outbox event",
				zap.Int64("event_id", event.ID),
				zap.Error(errPublish))
			continue
		}

		if errMark := p.source.MarkEventAsProcessed(ctx, event.ID); errMark != nil {
			p.logger.Error("failed to mark outbox event as processed",
				zap.Int64("event_id", event.ID),
				zap.Error(errMark))
			continue
		}
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order_id for ordering
		Value: event.Payload,             // Already JSON from database
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}
