package repository

import (
	"context"
	"errors"

	"github.com/21521147/book-hunter-project/internal/cart/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// AddItem adds quantity to the user's line for the book, creating the
	// cart document or the line as needed. Adding an already-present book
	// increases its quantity; it never creates a second line.
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	// IncrementItemQuantity applies delta atomically on the server and
	// returns the resulting quantity. A result below 1 means the line is
	// depleted; callers follow up with RemoveDepletedItems.
	IncrementItemQuantity(ctx context.Context, userID string, bookID int64, delta int) (int, error)
	RemoveDepletedItems(ctx context.Context, userID string) error
	RemoveItem(ctx context.Context, userID string, bookID int64) error
	DeleteCart(ctx context.Context, userID string) error
}
