package reconcile

import (
	"context"
	"encoding/json"
	"errors"

	cartdomain "github.com/21521147/book-hunter-project/internal/cart/domain"
	cartrepo "github.com/21521147/book-hunter-project/internal/cart/repository"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// OrderPlacedEvent mirrors the outbox payload written by the order store.
// BookIDs are the purchased lines; only those may be touched in the cart.
type OrderPlacedEvent struct {
	OrderID     string  `json:"order_id"`
	UserID      string  `json:"user_id"`
	TotalAmount int64   `json:"total_amount"`
	BookIDs     []int64 `json:"book_ids"`
}

// CartCleaner is the slice of the cart store the reconciler drives. Removal
// is per purchased line, never a blanket clear: anything the user added to
// the cart after checkout must survive reconciliation.
type CartCleaner interface {
	RemoveItem(ctx context.Context, userID string, bookID int64) (*cartdomain.Cart, error)
}

// CountInvalidator drops the delivering-orders badge for a user.
type CountInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer is the safety net behind checkout's synchronous cart clear: it
// replays order-placed events and removes whatever purchased lines were left
// behind. Events are delivered at least once, so every step here must be
// idempotent.
type Consumer struct {
	carts  CartCleaner
	counts CountInvalidator
	reader messageReader
	logger *zap.Logger
}

func NewConsumer(carts CartCleaner, counts CountInvalidator, logger *zap.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "order-events",
		GroupID:  "cart-reconciler",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{carts: carts, counts: counts, reader: reader, logger: logger}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("error closing kafka reader", zap.Error(err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Error("error reading message", zap.Error(err))
		return
	}

	if eventType(m) != "order.placed" {
		return
	}

	var event OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.logger.Error("error parsing message", zap.Error(err))
		return
	}
	if event.UserID == "" {
		c.logger.Error("order event without user_id", zap.String("order_id", event.OrderID))
		return
	}

	c.reconcile(ctx, event)
}

func (c *Consumer) reconcile(ctx context.Context, event OrderPlacedEvent) {
	removed := 0
	for _, bookID := range event.BookIDs {
		_, err := c.carts.RemoveItem(ctx, event.UserID, bookID)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, cartrepo.ErrItemNotFound), errors.Is(err, cartrepo.ErrCartNotFound):
			// already removed at checkout, the usual case
		default:
			c.logger.Error("failed to remove purchased item",
				zap.String("user_id", event.UserID),
				zap.Int64("book_id", bookID),
				zap.Error(err))
		}
	}
	if removed > 0 {
		c.logger.Info("removed purchased items left behind by checkout",
			zap.String("user_id", event.UserID),
			zap.String("order_id", event.OrderID),
			zap.Int("removed", removed))
	}

	// The new order changes the delivering badge either way.
	if err := c.counts.Invalidate(ctx, event.UserID); err != nil {
		c.logger.Warn("failed to invalidate order count",
			zap.String("user_id", event.UserID),
			zap.Error(err))
	}
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
