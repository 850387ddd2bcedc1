package service

import (
	"context"
	"errors"
	"time"

	"github.com/21521147/book-hunter-project/internal/order/cache"
	"github.com/21521147/book-hunter-project/internal/order/domain"
	"github.com/21521147/book-hunter-project/internal/order/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotOwner hides other users' orders behind the same error as a missing
// order so order ids cannot be probed.
var ErrNotOwner = repository.ErrOrderNotFound

var ErrUnknownStatus = errors.New("unknown order status")

type OrderService struct {
	repo   repository.OrderRepository
	counts cache.CountCache
	logger *zap.Logger
}

func NewOrderService(repo repository.OrderRepository, counts cache.CountCache, logger *zap.Logger) *OrderService {
	return &OrderService{repo: repo, counts: counts, logger: logger}
}

func (s *OrderService) GetOrder(ctx context.Context, userID string, id uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOwner
	}
	return order, nil
}

// ListByStatus backs the order-history tabs, one tab per status.
func (s *OrderService) ListByStatus(ctx context.Context, userID string, status domain.OrderStatus) ([]*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrUnknownStatus
	}
	return s.repo.ListOrdersByStatus(ctx, userID, status)
}

// CountByStatus counts a user's orders in any status. Only the delivering
// count sits behind the badge cache; the other statuses go straight to the
// store, they back no hot path.
func (s *OrderService) CountByStatus(ctx context.Context, userID string, status domain.OrderStatus) (int, error) {
	if !status.Valid() {
		return 0, ErrUnknownStatus
	}
	if status == domain.OrderStatusDelivering {
		return s.CountDelivering(ctx, userID)
	}
	return s.repo.CountOrdersByStatus(ctx, userID, status)
}

// CountDelivering serves the profile badge; the cached count tolerates up to
// a minute of staleness.
func (s *OrderService) CountDelivering(ctx context.Context, userID string) (int, error) {
	n, err := s.counts.GetCount(ctx, userID)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("count cache get error", zap.Error(err))
	}

	n, err = s.repo.CountOrdersByStatus(ctx, userID, domain.OrderStatusDelivering)
	if err != nil {
		return 0, err
	}

	if errSet := s.counts.SetCount(ctx, userID, n); errSet != nil {
		s.logger.Warn("count cache set error", zap.Error(errSet))
	}
	return n, nil
}

// MarkDelivered completes a delivering order.
func (s *OrderService) MarkDelivered(ctx context.Context, userID string, id uuid.UUID) error {
	return s.transition(ctx, userID, id, domain.OrderStatusDelivered)
}

// CancelOrder cancels a delivering order. Terminal orders stay untouched.
func (s *OrderService) CancelOrder(ctx context.Context, userID string, id uuid.UUID) error {
	return s.transition(ctx, userID, id, domain.OrderStatusCanceled)
}

func (s *OrderService) transition(ctx context.Context, userID string, id uuid.UUID, to domain.OrderStatus) error {
	order, err := s.GetOrder(ctx, userID, id)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(to) {
		return repository.ErrInvalidTransition
	}

	// The repository re-checks the current status inside the UPDATE, so a
	// concurrent transition loses cleanly instead of double-applying.
	if err := s.repo.UpdateOrderStatus(ctx, id, order.Status, to); err != nil {
		return err
	}

	s.invalidateCount(userID)
	return nil
}

func (s *OrderService) invalidateCount(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.counts.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("count cache invalidate error", zap.Error(err))
	}
}
