package repository

import (
	"context"
	"errors"
	"time"

	"github.com/21521147/book-hunter-project/internal/order/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateOrder    = errors.New("order already placed for this idempotency key")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// OutboxEvent is a pending message written in the same transaction as the
// order it describes.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type OrderRepository interface {
	// CreateOrder inserts the order and its placed event atomically. A
	// replayed idempotency key returns ErrDuplicateOrder.
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderIDByIdempotencyKey(ctx context.Context, userID, key string) (uuid.UUID, error)
	// ListOrdersByStatus returns the user's orders in the given status,
	// newest first.
	ListOrdersByStatus(ctx context.Context, userID string, status domain.OrderStatus) ([]*domain.Order, error)
	CountOrdersByStatus(ctx context.Context, userID string, status domain.OrderStatus) (int, error)
	// UpdateOrderStatus moves the order from exactly `from` to `to`; any
	// other current status fails with ErrInvalidTransition.
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventID int64) error

	Close() error
}
