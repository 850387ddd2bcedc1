package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/21521147/book-hunter-project/internal/catalog/domain"
	"github.com/go-chi/chi/v5"
)

// CatalogAPI is the slice of the catalog service the edge exposes.
type CatalogAPI interface {
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	ListBooks(ctx context.Context) ([]*domain.Book, error)
	ListByGenre(ctx context.Context, genre string) ([]*domain.Book, error)
	Search(ctx context.Context, title string) ([]*domain.Book, error)
	FlashSale(ctx context.Context, n int) ([]*domain.Book, error)
}

type CatalogHandler struct {
	catalog CatalogAPI
	timeout time.Duration
}

func NewCatalogHandler(catalog CatalogAPI, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, timeout: timeout}
}

func (h *CatalogHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		books []*domain.Book
		err   error
	)

	switch {
	case r.URL.Query().Get("q") != "":
		books, err = h.catalog.Search(ctx, r.URL.Query().Get("q"))
	case r.URL.Query().Get("genre") != "":
		books, err = h.catalog.ListByGenre(ctx, r.URL.Query().Get("genre"))
	default:
		books, err = h.catalog.ListBooks(ctx)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if books == nil {
		books = []*domain.Book{}
	}

	respondJSON(w, http.StatusOK, books)
}

func (h *CatalogHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	bookID, err := strconv.ParseInt(chi.URLParam(r, "book_id"), 10, 64)
	if err != nil || bookID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_book_id", "book_id must be a positive integer")
		return
	}

	book, err := h.catalog.GetBook(ctx, bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, book)
}

func (h *CatalogHandler) FlashSale(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	n := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		n = parsed
	}

	books, err := h.catalog.FlashSale(ctx, n)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if books == nil {
		books = []*domain.Book{}
	}

	respondJSON(w, http.StatusOK, books)
}
