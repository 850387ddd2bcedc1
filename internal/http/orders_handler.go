package http

import (
	"context"
	"net/http"
	"time"

	"github.com/21521147/book-hunter-project/internal/order/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// OrderAPI is the slice of the order service the edge exposes.
type OrderAPI interface {
	GetOrder(ctx context.Context, userID string, id uuid.UUID) (*domain.Order, error)
	ListByStatus(ctx context.Context, userID string, status domain.OrderStatus) ([]*domain.Order, error)
	CountByStatus(ctx context.Context, userID string, status domain.OrderStatus) (int, error)
	MarkDelivered(ctx context.Context, userID string, id uuid.UUID) error
	CancelOrder(ctx context.Context, userID string, id uuid.UUID) error
}

type OrdersHandler struct {
	orders  OrderAPI
	timeout time.Duration
}

func NewOrdersHandler(orders OrderAPI, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: orders, timeout: timeout}
}

func (h *OrdersHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	status := domain.OrderStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.OrderStatusDelivering
	}

	orders, err := h.orders.ListByStatus(ctx, userID, status)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// CountOrders answers ?status=, defaulting to the delivering badge count.
func (h *OrdersHandler) CountOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	status := domain.OrderStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.OrderStatusDelivering
	}

	n, err := h.orders.CountByStatus(ctx, userID, status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *OrdersHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.MarkDelivered)
}

func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.CancelOrder)
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, uuid.UUID) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	if err := apply(ctx, userID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	order, err := h.orders.GetOrder(ctx, userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
