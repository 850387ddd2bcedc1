package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/21521147/book-hunter-project/internal/order/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func newTestOrder(userID string) *domain.Order {
	return &domain.Order{
		ID:     uuid.New(),
		UserID: userID,
		Items: []domain.OrderItem{
			{BookID: 1, Title: "Nha Gia Kim", Quantity: 2, UnitPrice: 100000, Subtotal: 200000},
			{BookID: 5, Title: "Cho Toi Xin Mot Ve Di Tuoi Tho", Quantity: 1, UnitPrice: 80000, Subtotal: 80000},
		},
		ItemsTotal:  280000,
		ShippingFee: 30000,
		TotalAmount: 310000,
		Currency:    domain.CurrencyVND,
		Status:      domain.OrderStatusDelivering,
		Shipping: domain.ShippingInfo{
			Name:    "Minh",
			Phone:   "0901234567",
			Address: "12 Nguyen Trai, Q1, TP.HCM",
			Method:  domain.ShippingStandard,
		},
		PaymentMethod:  domain.PaymentCOD,
		IdempotencyKey: uuid.NewString(),
	}
}

func TestCreateOrder_Success(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder("user-1")
	require.NoError(t, repo.CreateOrder(ctx, order))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
	assert.Equal(t, order.UserID, fetched.UserID)
	assert.Equal(t, int64(310000), fetched.TotalAmount)
	assert.Equal(t, domain.CurrencyVND, fetched.Currency)
	assert.Equal(t, domain.OrderStatusDelivering, fetched.Status)
	assert.Equal(t, "Minh", fetched.Shipping.Name)
	assert.Equal(t, domain.PaymentCOD, fetched.PaymentMethod)
	require.Len(t, fetched.Items, 2)
	assert.Equal(t, "Nha Gia Kim", fetched.Items[0].Title)
	assert.Equal(t, int64(200000), fetched.Items[0].Subtotal)
}

func TestCreateOrder_WritesOutboxEventAtomically(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder("user-1")
	require.NoError(t, repo.CreateOrder(ctx, order))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, order.ID.String(), events[0].AggregateID)
	assert.Equal(t, "order.placed", events[0].EventType)
	assert.Nil(t, events[0].ProcessedAt)

	// the reconciler needs the purchased book ids
	var payload struct {
		BookIDs []int64 `json:"book_ids"`
	}
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, []int64{1, 5}, payload.BookIDs)
}

func TestCreateOrder_DuplicateIdempotencyKey(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	order1 := newTestOrder("user-1")
	require.NoError(t, repo.CreateOrder(ctx, order1))

	order2 := newTestOrder("user-1")
	order2.IdempotencyKey = order1.IdempotencyKey
	err := repo.CreateOrder(ctx, order2)
	assert.ErrorIs(t, err, ErrDuplicateOrder)

	// the failed insert must not leave a second outbox event behind
	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	id, err := repo.GetOrderIDByIdempotencyKey(ctx, "user-1", order1.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, order1.ID, id)
}

func TestCreateOrder_EmptyKeysNeverCollide(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// no idempotency key means no replay protection and no collision: each
	// keyless checkout is its own purchase
	order1 := newTestOrder("user-1")
	order1.IdempotencyKey = ""
	order2 := newTestOrder("user-1")
	order2.IdempotencyKey = ""

	require.NoError(t, repo.CreateOrder(ctx, order1))
	require.NoError(t, repo.CreateOrder(ctx, order2))

	n, err := repo.CountOrdersByStatus(ctx, "user-1", domain.OrderStatusDelivering)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCreateOrder_SameKeyDifferentUsers(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	key := uuid.NewString()
	order1 := newTestOrder("user-1")
	order1.IdempotencyKey = key
	order2 := newTestOrder("user-2")
	order2.IdempotencyKey = key

	require.NoError(t, repo.CreateOrder(ctx, order1))
	require.NoError(t, repo.CreateOrder(ctx, order2))
}

func TestGetOrderByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetOrderByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrderIDByIdempotencyKey_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetOrderIDByIdempotencyKey(context.Background(), "user-1", "never-used")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrdersByStatus_NewestFirst(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	order1 := newTestOrder("user-1")
	require.NoError(t, repo.CreateOrder(ctx, order1))

	// Small sleep to ensure different created_at timestamps
	time.Sleep(10 * time.Millisecond)

	order2 := newTestOrder("user-1")
	require.NoError(t, repo.CreateOrder(ctx, order2))

	otherUser := newTestOrder("user-2")
	require.NoError(t, repo.CreateOrder(ctx, otherUser))

	orders, err := repo.ListOrdersByStatus(ctx, "user-1", domain.OrderStatusDelivering)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, order2.ID, orders[0].ID)
	assert.Equal(t, order1.ID, orders[1].ID)

	delivered, err := repo.ListOrdersByStatus(ctx, "user-1", domain.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Empty(t, delivered)
}

func TestCountOrdersByStatus(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("user-1")))
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("user-1")))

	n, err := repo.CountOrdersByStatus(ctx, "user-1", domain.OrderStatusDelivering)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.CountOrdersByStatus(ctx, "user-1", domain.OrderStatusCanceled)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUpdateOrderStatus_ForwardTransition(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder("user-1")
	require.NoError(t, repo.CreateOrder(ctx, order))

	err := repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusDelivering, domain.OrderStatusDelivered)
	require.NoError(t, err)

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, fetched.Status)
}

func TestUpdateOrderStatus_TerminalStateIsFrozen(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	order := newTestOrder("user-1")
	require.NoError(t, repo.CreateOrder(ctx, order))
	require.NoError(t, repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusDelivering, domain.OrderStatusCanceled))

	err := repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusDelivering, domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, fetched.Status)
}

func TestUpdateOrderStatus_MissingOrder(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.UpdateOrderStatus(context.Background(), uuid.New(), domain.OrderStatusDelivering, domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMarkEventAsProcessed(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("user-1")))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))

	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
