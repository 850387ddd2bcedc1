package service

import (
	"context"
	"sync"

	cartdomain "github.com/21521147/book-hunter-project/internal/cart/domain"
	catalogdomain "github.com/21521147/book-hunter-project/internal/catalog/domain"
	catalogrepo "github.com/21521147/book-hunter-project/internal/catalog/repository"
	orderdomain "github.com/21521147/book-hunter-project/internal/order/domain"
	orderrepo "github.com/21521147/book-hunter-project/internal/order/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockCartGateway implements CartGateway for testing.
type MockCartGateway struct {
	mu         sync.Mutex
	Cart       *cartdomain.Cart
	GetErr     error
	ClearErr   error
	ClearCalls int
}

func (m *MockCartGateway) GetCart(_ context.Context, userID string) (*cartdomain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.Cart == nil {
		return &cartdomain.Cart{UserID: userID}, nil
	}
	return m.Cart, nil
}

func (m *MockCartGateway) ClearCart(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls++
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.Cart = nil
	return nil
}

// MockCatalog implements BookCatalog for testing.
type MockCatalog struct {
	mu    sync.Mutex
	Books map[int64]*catalogdomain.Book
	Err   error
	Calls int
}

func (m *MockCatalog) GetBook(_ context.Context, id int64) (*catalogdomain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	book, ok := m.Books[id]
	if !ok {
		return nil, catalogrepo.ErrBookNotFound
	}
	return book, nil
}

// MockOrderStore implements OrderStore for testing.
type MockOrderStore struct {
	mu        sync.Mutex
	Orders    map[uuid.UUID]*orderdomain.Order
	CreateErr error
	// SkipLookups makes that many idempotency lookups miss, simulating a
	// pre-check racing an insert.
	SkipLookups int
}

func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{Orders: make(map[uuid.UUID]*orderdomain.Order)}
}

func (m *MockOrderStore) CreateOrder(_ context.Context, order *orderdomain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	// Keyless orders never collide: the unique index is partial, covering
	// only non-empty keys.
	for _, existing := range m.Orders {
		if order.IdempotencyKey != "" && existing.UserID == order.UserID && existing.IdempotencyKey == order.IdempotencyKey {
			return orderrepo.ErrDuplicateOrder
		}
	}
	copied := *order
	m.Orders[order.ID] = &copied
	return nil
}

func (m *MockOrderStore) GetOrderByID(_ context.Context, id uuid.UUID) (*orderdomain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.Orders[id]
	if !ok {
		return nil, orderrepo.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrderStore) GetOrderIDByIdempotencyKey(_ context.Context, userID, key string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SkipLookups > 0 {
		m.SkipLookups--
		return uuid.Nil, orderrepo.ErrOrderNotFound
	}
	for id, order := range m.Orders {
		if order.UserID == userID && order.IdempotencyKey == key {
			return id, nil
		}
	}
	return uuid.Nil, orderrepo.ErrOrderNotFound
}

// MockUserVerifier implements UserVerifier for testing. The zero value
// reports every user as existing.
type MockUserVerifier struct {
	Missing bool
	Err     error
}

func (m *MockUserVerifier) Exists(_ context.Context, _ string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return !m.Missing, nil
}

// newTestCheckoutService wires a CheckoutService from mocks.
func newTestCheckoutService(cart *MockCartGateway, catalog *MockCatalog, orders *MockOrderStore) *CheckoutService {
	return NewCheckoutService(cart, catalog, orders, &MockUserVerifier{}, zap.NewNop())
}
