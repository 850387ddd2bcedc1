package service

import "errors"

var (
	ErrEmptyCart = errors.New("cart is empty, nothing to checkout")
	// ErrCartNotCleared reports a placed order whose cart could not be
	// cleared synchronously. The order stands; the reconciler catches up.
	ErrCartNotCleared     = errors.New("order placed but cart not cleared")
	ErrCatalogUnavailable = errors.New("catalog is unavailable")
	ErrBookNotSellable    = errors.New("book cannot be ordered")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
)
