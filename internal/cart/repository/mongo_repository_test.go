package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/21521147/book-hunter-project/internal/cart/domain"
	conn "github.com/21521147/book-hunter-project/pkg/mongodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) (CartRepository, func()) {
	ctx := context.Background()

	// Start MongoDB container
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := conn.Connect(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, repo.CreateIndexes(ctx))

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func TestGetCart_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	cart, err := repo.GetCart(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, cart)
}

func TestAddItem_CreatesCartDocument(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	err := repo.AddItem(ctx, "user-1", domain.CartItem{BookID: 1, Quantity: 2})
	require.NoError(t, err)

	cart, err := repo.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", cart.UserID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.False(t, cart.CreatedAt.IsZero())
	assert.False(t, cart.Items[0].AddedAt.IsZero())
}

func TestAddItem_SameBookSumsQuantity(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user-1", domain.CartItem{BookID: 1, Quantity: 1}))
	require.NoError(t, repo.AddItem(ctx, "user-1", domain.CartItem{BookID: 1, Quantity: 2}))
	require.NoError(t, repo.AddItem(ctx, "user-1", domain.CartItem{BookID: 2, Quantity: 1}))

	cart, err := repo.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, int64(2), cart.Items[1].BookID)
}

func TestAddItem_ConcurrentSameBookNoDuplicateLine(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.AddItem(ctx, "user-1", domain.CartItem{BookID: 7, Quantity: 1}))
		}()
	}
	wg.Wait()

	cart, err := repo.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, n, cart.Items[0].Quantity)
}

func TestIncrementItemQuantity(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user-1", domain.CartItem{BookID: 1, Quantity: 2}))

	qty, err := repo.IncrementItemQuantity(ctx, "user-1", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, qty)

	qty, err = repo.IncrementItemQuantity(ctx, "user-1", 1, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
}

func TestIncrementItemQuantity_MissingLine(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user-1", domain.CartItem{BookID: 1, Quantity: 1}))

	_, err := repo.IncrementItemQuantity(ctx, "user-1", 99, 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveDepletedItems(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user-1", domain.CartItem{BookID: 1, Quantity: 1}))
	require.NoError(t, repo.AddItem(ctx, "user-1", domain.CartItem{BookID: 2, Quantity: 2}))

	_, err := repo.IncrementItemQuantity(ctx, "user-1", 1, -1)
	require.NoError(t, err)
	require.NoError(t, repo.RemoveDepletedItems(ctx, "user-1"))

	cart, err := repo.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(2), cart.Items[0].BookID)
}

func TestRemoveItem(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user-1", domain.CartItem{BookID: 1, Quantity: 1}))
	require.NoError(t, repo.AddItem(ctx, "user-1", domain.CartItem{BookID: 2, Quantity: 1}))

	require.NoError(t, repo.RemoveItem(ctx, "user-1", 1))

	cart, err := repo.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	// second removal of the same book
	err = repo.RemoveItem(ctx, "user-1", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestDeleteCart(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.AddItem(ctx, "user-1", domain.CartItem{BookID: 1, Quantity: 1}))
	require.NoError(t, repo.DeleteCart(ctx, "user-1"))

	_, err := repo.GetCart(ctx, "user-1")
	assert.ErrorIs(t, err, ErrCartNotFound)

	err = repo.DeleteCart(ctx, "user-1")
	assert.ErrorIs(t, err, ErrCartNotFound)
}
