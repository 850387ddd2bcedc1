package service

import (
	"context"
	"errors"
	"fmt"

	cartdomain "github.com/21521147/book-hunter-project/internal/cart/domain"
	cartrepo "github.com/21521147/book-hunter-project/internal/cart/repository"
	idrepo "github.com/21521147/book-hunter-project/internal/identity/repository"
	orderdomain "github.com/21521147/book-hunter-project/internal/order/domain"
	orderrepo "github.com/21521147/book-hunter-project/internal/order/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartGateway is the slice of the cart store checkout consumes.
type CartGateway interface {
	GetCart(ctx context.Context, userID string) (*cartdomain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// OrderStore is the slice of the order store checkout writes to.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *orderdomain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*orderdomain.Order, error)
	GetOrderIDByIdempotencyKey(ctx context.Context, userID, key string) (uuid.UUID, error)
}

// UserVerifier guards buy-now orders. PlaceOrder gets its user check through
// the cart store, but buy-now never touches the cart.
type UserVerifier interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

type PlaceOrderRequest struct {
	Shipping       orderdomain.ShippingInfo
	PaymentMethod  string
	IdempotencyKey string
}

type CheckoutService struct {
	cart    CartGateway
	catalog BookCatalog
	orders  OrderStore
	users   UserVerifier
	logger  *zap.Logger
}

func NewCheckoutService(cart CartGateway, catalog BookCatalog, orders OrderStore, users UserVerifier, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		cart:    cart,
		catalog: catalog,
		orders:  orders,
		users:   users,
		logger:  logger,
	}
}

// PlaceOrder converts the user's cart into an order.
//
// Prices and titles are re-read from the catalog and frozen into the order
// lines, so the order total is computed from current catalog prices at the
// moment of checkout, never from values the client sent. The order and its
// outbox event commit atomically; the cart is then cleared. If the clear
// fails the order still stands and ErrCartNotCleared is returned alongside
// it so the edge can tell the client the purchase went through.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*orderdomain.Order, error) {
	if existing, err := s.findByIdempotencyKey(ctx, userID, req.IdempotencyKey); existing != nil || err != nil {
		return existing, err
	}

	cart, err := s.cart.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items, itemsTotal, err := s.buildSnapshot(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	order := s.newOrder(userID, items, itemsTotal, req)
	if err := s.createOrder(ctx, userID, order, req.IdempotencyKey); err != nil {
		return nil, err
	}

	if errClear := s.cart.ClearCart(ctx, userID); errClear != nil && !errors.Is(errClear, cartrepo.ErrCartNotFound) {
		s.logger.Error("cart not cleared after checkout",
			zap.String("user_id", userID),
			zap.String("order_id", order.ID.String()),
			zap.Error(errClear))
		return order, ErrCartNotCleared
	}

	s.logger.Info("order placed",
		zap.String("user_id", userID),
		zap.String("order_id", order.ID.String()),
		zap.Int64("total_amount", order.TotalAmount))
	return order, nil
}

// BuyNow places an order for a single book, bypassing the cart entirely.
// The cart is left untouched.
func (s *CheckoutService) BuyNow(ctx context.Context, userID string, bookID int64, quantity int, req PlaceOrderRequest) (*orderdomain.Order, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	if !exists {
		return nil, idrepo.ErrUserNotFound
	}

	if existing, err := s.findByIdempotencyKey(ctx, userID, req.IdempotencyKey); existing != nil || err != nil {
		return existing, err
	}

	items, itemsTotal, err := s.buildSnapshot(ctx, []cartdomain.CartItem{{BookID: bookID, Quantity: quantity}})
	if err != nil {
		return nil, err
	}

	order := s.newOrder(userID, items, itemsTotal, req)
	if err := s.createOrder(ctx, userID, order, req.IdempotencyKey); err != nil {
		return nil, err
	}

	s.logger.Info("buy-now order placed",
		zap.String("user_id", userID),
		zap.String("order_id", order.ID.String()),
		zap.Int64("total_amount", order.TotalAmount))
	return order, nil
}

func (s *CheckoutService) findByIdempotencyKey(ctx context.Context, userID, key string) (*orderdomain.Order, error) {
	if key == "" {
		return nil, nil
	}

	id, err := s.orders.GetOrderIDByIdempotencyKey(ctx, userID, key)
	if errors.Is(err, orderrepo.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}

	s.logger.Info("duplicate checkout request",
		zap.String("user_id", userID),
		zap.String("order_id", id.String()))
	return s.orders.GetOrderByID(ctx, id)
}

// buildSnapshot freezes titles and unit prices from the catalog into order
// lines and sums the items total.
func (s *CheckoutService) buildSnapshot(ctx context.Context, cartItems []cartdomain.CartItem) ([]orderdomain.OrderItem, int64, error) {
	items := make([]orderdomain.OrderItem, 0, len(cartItems))

	var itemsTotal int64
	for _, item := range cartItems {
		if item.Quantity < 1 {
			return nil, 0, ErrInvalidQuantity
		}

		book, err := s.catalog.GetBook(ctx, item.BookID)
		if err != nil {
			if errors.Is(err, ErrCatalogUnavailable) {
				return nil, 0, err
			}
			return nil, 0, fmt.Errorf("failed to get book %d: %w", item.BookID, err)
		}

		subtotal := book.Price * int64(item.Quantity)
		items = append(items, orderdomain.OrderItem{
			BookID:    book.ID,
			Title:     book.Title,
			Quantity:  item.Quantity,
			UnitPrice: book.Price,
			Subtotal:  subtotal,
		})
		itemsTotal += subtotal
	}

	return items, itemsTotal, nil
}

func (s *CheckoutService) newOrder(userID string, items []orderdomain.OrderItem, itemsTotal int64, req PlaceOrderRequest) *orderdomain.Order {
	shipping := req.Shipping
	if shipping.Method == "" {
		shipping.Method = orderdomain.ShippingStandard
	}
	payment := req.PaymentMethod
	if payment == "" {
		payment = orderdomain.PaymentCOD
	}

	fee := shipping.Method.Fee()
	return &orderdomain.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Items:          items,
		ItemsTotal:     itemsTotal,
		ShippingFee:    fee,
		TotalAmount:    itemsTotal + fee,
		Currency:       orderdomain.CurrencyVND,
		Status:         orderdomain.OrderStatusDelivering,
		Shipping:       shipping,
		PaymentMethod:  payment,
		IdempotencyKey: req.IdempotencyKey,
	}
}

// createOrder inserts the order; a concurrent replay of the same idempotency
// key resolves to the winner's order. Keyless orders never resolve this way:
// the store only treats non-empty keys as duplicates, so each keyless
// checkout is a distinct purchase.
func (s *CheckoutService) createOrder(ctx context.Context, userID string, order *orderdomain.Order, key string) error {
	err := s.orders.CreateOrder(ctx, order)
	if err == nil {
		return nil
	}
	if !errors.Is(err, orderrepo.ErrDuplicateOrder) || key == "" {
		return fmt.Errorf("failed to create order: %w", err)
	}

	id, lookupErr := s.orders.GetOrderIDByIdempotencyKey(ctx, userID, key)
	if lookupErr != nil {
		return fmt.Errorf("failed to resolve duplicate order: %w", lookupErr)
	}
	winner, lookupErr := s.orders.GetOrderByID(ctx, id)
	if lookupErr != nil {
		return fmt.Errorf("failed to load duplicate order: %w", lookupErr)
	}
	*order = *winner
	return nil
}
