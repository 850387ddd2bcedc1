package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	RequestTimeout time.Duration
}

// NewRouter wires the API surface. All routes under /api/v1 expect the
// authenticated user in context.
func NewRouter(
	cfg RouterConfig,
	cart *CartHandler,
	checkout *CheckoutHandler,
	orders *OrdersHandler,
	catalog *CatalogHandler,
	profile *ProfileHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(MockAuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.Get("/", catalog.ListBooks)
			r.Get("/flash-sale", catalog.FlashSale)
			r.Get("/{book_id}", catalog.GetBook)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.GetCart)
			r.Delete("/", cart.ClearCart)
			r.Get("/count", cart.CountItems)
			r.Post("/items", cart.AddItem)
			r.Put("/items/{book_id}", cart.UpdateQuantity)
			r.Delete("/items/{book_id}", cart.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkout.PlaceOrder)
			r.Post("/buy-now", checkout.BuyNow)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orders.ListByStatus)
			r.Get("/count", orders.CountOrders)
			r.Get("/{order_id}", orders.GetOrder)
			r.Post("/{order_id}/delivered", orders.MarkDelivered)
			r.Post("/{order_id}/cancel", orders.CancelOrder)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", profile.GetProfile)
			r.Post("/", profile.Register)
			r.Put("/", profile.UpdateProfile)
			r.Get("/favorites", profile.ListFavorites)
			r.Post("/favorites/{book_id}", profile.AddFavorite)
			r.Delete("/favorites/{book_id}", profile.RemoveFavorite)
		})
	})

	return r
}
