package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/21521147/book-hunter-project/internal/cart/domain"
	cartrepo "github.com/21521147/book-hunter-project/internal/cart/repository"
	"github.com/go-chi/chi/v5"
)

// CartAPI is the slice of the cart service the edge exposes.
type CartAPI interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, bookID int64, quantity int) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID string, bookID int64, delta int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID string, bookID int64) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
	CountItems(ctx context.Context, userID string) (int, error)
}

type CartHandler struct {
	cart    CartAPI
	timeout time.Duration
}

func NewCartHandler(cart CartAPI, timeout time.Duration) *CartHandler {
	return &CartHandler{cart: cart, timeout: timeout}
}

type AddItemRequestDTO struct {
	BookID   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Delta int `json:"delta"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) CountItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	n, err := h.cart.CountItems(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.BookID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_book_id", "book_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	cart, err := h.cart.AddItem(ctx, userID, req.BookID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	bookID, ok := bookIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Delta == 0 {
		respondError(w, http.StatusBadRequest, "invalid_delta", "delta must be non-zero")
		return
	}

	cart, err := h.cart.UpdateQuantity(ctx, userID, bookID, req.Delta)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	bookID, ok := bookIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.cart.RemoveItem(ctx, userID, bookID)
	if err != nil {
		// Removing an already-removed line still lands the client in the
		// state it wanted; report the current cart instead of failing.
		if errors.Is(err, cartrepo.ErrItemNotFound) {
			current, getErr := h.cart.GetCart(ctx, userID)
			if getErr != nil {
				handleServiceError(w, getErr)
				return
			}
			respondJSON(w, http.StatusOK, current)
			return
		}
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.cart.ClearCart(ctx, userID); err != nil && !errors.Is(err, cartrepo.ErrCartNotFound) {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func bookIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	bookIDStr := chi.URLParam(r, "book_id")
	bookID, err := strconv.ParseInt(bookIDStr, 10, 64)
	if err != nil || bookID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_book_id", "book_id must be a positive integer")
		return 0, false
	}
	return bookID, true
}
