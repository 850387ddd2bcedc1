package http

import (
	"encoding/json"
	"errors"
	"net/http"

	cartrepo "github.com/21521147/book-hunter-project/internal/cart/repository"
	catalogrepo "github.com/21521147/book-hunter-project/internal/catalog/repository"
	checkout "github.com/21521147/book-hunter-project/internal/checkout/service"
	idrepo "github.com/21521147/book-hunter-project/internal/identity/repository"
	orderrepo "github.com/21521147/book-hunter-project/internal/order/repository"
	orderservice "github.com/21521147/book-hunter-project/internal/order/service"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError converts service sentinels to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, idrepo.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "user_not_found", "user not found")
	case errors.Is(err, catalogrepo.ErrBookNotFound):
		respondError(w, http.StatusNotFound, "book_not_found", "book not found")
	case errors.Is(err, cartrepo.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", "item not found in cart")
	case errors.Is(err, cartrepo.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", "cart not found")
	case errors.Is(err, orderrepo.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", "cart is empty")
	case errors.Is(err, checkout.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
	case errors.Is(err, checkout.ErrCatalogUnavailable):
		respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "catalog is temporarily unavailable")
	case errors.Is(err, orderrepo.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "invalid_transition", "order cannot change to this status")
	case errors.Is(err, orderservice.ErrUnknownStatus):
		respondError(w, http.StatusBadRequest, "unknown_status", "unknown order status")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
