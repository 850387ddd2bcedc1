package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	checkout "github.com/21521147/book-hunter-project/internal/checkout/service"
	orderdomain "github.com/21521147/book-hunter-project/internal/order/domain"
)

// CheckoutAPI is the slice of the checkout service the edge exposes.
type CheckoutAPI interface {
	PlaceOrder(ctx context.Context, userID string, req checkout.PlaceOrderRequest) (*orderdomain.Order, error)
	BuyNow(ctx context.Context, userID string, bookID int64, quantity int, req checkout.PlaceOrderRequest) (*orderdomain.Order, error)
}

type CheckoutHandler struct {
	checkout CheckoutAPI
	timeout  time.Duration
}

func NewCheckoutHandler(checkout CheckoutAPI, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, timeout: timeout}
}

type PlaceOrderRequestDTO struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	ShippingMethod string `json:"shipping_method"`
	PaymentMethod  string `json:"payment_method"`
	IdempotencyKey string `json:"idempotency_key"`
}

type BuyNowRequestDTO struct {
	PlaceOrderRequestDTO
	BookID   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}

type PlaceOrderResponseDTO struct {
	Order *orderdomain.Order `json:"order"`
	// CartCleared is false when the order was placed but the cart clear
	// failed; the reconciler finishes the job.
	CartCleared bool `json:"cart_cleared"`
}

func (dto *PlaceOrderRequestDTO) toRequest() (checkout.PlaceOrderRequest, string) {
	if dto.Name == "" || dto.Phone == "" || dto.Address == "" {
		return checkout.PlaceOrderRequest{}, "name, phone and address are required"
	}

	method := orderdomain.ShippingMethod(dto.ShippingMethod)
	if method != "" && method != orderdomain.ShippingStandard && method != orderdomain.ShippingExpress {
		return checkout.PlaceOrderRequest{}, "shipping_method must be standard or express"
	}

	return checkout.PlaceOrderRequest{
		Shipping: orderdomain.ShippingInfo{
			Name:    dto.Name,
			Phone:   dto.Phone,
			Address: dto.Address,
			Method:  method,
		},
		PaymentMethod:  dto.PaymentMethod,
		IdempotencyKey: dto.IdempotencyKey,
	}, ""
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var dto PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	req, problem := dto.toRequest()
	if problem != "" {
		respondError(w, http.StatusBadRequest, "invalid_request", problem)
		return
	}

	order, err := h.checkout.PlaceOrder(ctx, userID, req)
	if err != nil {
		// The purchase went through; tell the client so even though the
		// cart still shows the old items until reconciliation.
		if errors.Is(err, checkout.ErrCartNotCleared) {
			respondJSON(w, http.StatusCreated, PlaceOrderResponseDTO{Order: order, CartCleared: false})
			return
		}
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, PlaceOrderResponseDTO{Order: order, CartCleared: true})
}

func (h *CheckoutHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var dto BuyNowRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if dto.BookID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_book_id", "book_id must be positive")
		return
	}

	req, problem := dto.toRequest()
	if problem != "" {
		respondError(w, http.StatusBadRequest, "invalid_request", problem)
		return
	}

	order, err := h.checkout.BuyNow(ctx, userID, dto.BookID, dto.Quantity, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, PlaceOrderResponseDTO{Order: order, CartCleared: true})
}
