package service

import (
	"context"
	"errors"
	"time"

	"github.com/21521147/book-hunter-project/internal/cart/cache"
	"github.com/21521147/book-hunter-project/internal/cart/domain"
	"github.com/21521147/book-hunter-project/internal/cart/repository"
	idrepo "github.com/21521147/book-hunter-project/internal/identity/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// UserVerifier is the slice of the identity store the cart needs: every cart
// operation on a nonexistent user fails with ErrUserNotFound.
type UserVerifier interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// BookVerifier guards AddItem against dangling catalog references.
type BookVerifier interface {
	Exists(ctx context.Context, bookID int64) (bool, error)
}

type CartService struct {
	repo   repository.CartRepository
	cache  cache.CartCache
	users  UserVerifier
	books  BookVerifier
	logger *zap.Logger
	sfg    singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, users UserVerifier, books BookVerifier, logger *zap.Logger) *CartService {
	return &CartService{
		repo:   repo,
		cache:  cache,
		users:  users,
		books:  books,
		logger: logger,
	}
}

func (s *CartService) verifyUser(ctx context.Context, userID string) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return idrepo.ErrUserNotFound
	}
	return nil
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if err := s.verifyUser(ctx, userID); err != nil {
		return nil, err
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cache get error", zap.Error(err)) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil && errors.Is(errGet, repository.ErrCartNotFound) { // no cart doc yet means empty cart
			return &domain.Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				s.logger.Warn("cache set error", zap.Error(errSet))
			}
		}()

		return cart, nil // cart was not in cache, return it from repo
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// CountItems serves the cart tab badge.
func (s *CartService) CountItems(ctx context.Context, userID string) (int, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return 0, err
	}
	return cart.TotalQuantity(), nil
}

func (s *CartService) AddItem(ctx context.Context, userID string, bookID int64, quantity int) (*domain.Cart, error) {
	if err := s.verifyUser(ctx, userID); err != nil {
		return nil, err
	}

	if s.books != nil {
		ok, err := s.books.Exists(ctx, bookID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, repository.ErrItemNotFound
		}
	}

	item := domain.CartItem{
		BookID:   bookID,
		Quantity: quantity,
		AddedAt:  time.Now(),
	}
	if errAdd := s.repo.AddItem(ctx, userID, item); errAdd != nil {
		s.logger.Error("repo add item error", zap.Error(errAdd))
		return nil, errAdd
	}

	s.invalidateCache(userID)
	return s.readBack(ctx, userID)
}

// UpdateQuantity applies delta atomically at the store. A delta that drives
// the quantity to zero or below removes the line entirely (removal-on-zero
// policy); the resulting quantity of a surviving line is never below 1.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, bookID int64, delta int) (*domain.Cart, error) {
	if err := s.verifyUser(ctx, userID); err != nil {
		return nil, err
	}

	newQty, errUpdate := s.repo.IncrementItemQuantity(ctx, userID, bookID, delta)
	if errUpdate != nil {
		if !errors.Is(errUpdate, repository.ErrItemNotFound) {
			s.logger.Error("repo update item quantity error", zap.Error(errUpdate))
		}
		return nil, errUpdate
	}

	if newQty < 1 {
		if errRemove := s.repo.RemoveDepletedItems(ctx, userID); errRemove != nil {
			s.logger.Error("repo remove depleted items error", zap.Error(errRemove))
			return nil, errRemove
		}
	}

	s.invalidateCache(userID)
	return s.readBack(ctx, userID)
}

// RemoveItem is idempotent from the caller's point of view: removing an
// already-removed line reports ErrItemNotFound, which the edge treats as a
// non-fatal "already gone".
func (s *CartService) RemoveItem(ctx context.Context, userID string, bookID int64) (*domain.Cart, error) {
	if err := s.verifyUser(ctx, userID); err != nil {
		return nil, err
	}

	errRemove := s.repo.RemoveItem(ctx, userID, bookID)
	if errRemove != nil {
		if !errors.Is(errRemove, repository.ErrItemNotFound) {
			s.logger.Error("repo remove item error", zap.Error(errRemove))
		}
		return nil, errRemove
	}

	s.invalidateCache(userID)
	return s.readBack(ctx, userID)
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	errDelete := s.repo.DeleteCart(ctx, userID)
	if errDelete != nil && !errors.Is(errDelete, repository.ErrCartNotFound) {
		s.logger.Error("repo delete cart error", zap.Error(errDelete))
		return errDelete
	}

	s.invalidateCache(userID)
	if errors.Is(errDelete, repository.ErrCartNotFound) {
		return repository.ErrCartNotFound
	}
	return nil
}

func (s *CartService) readBack(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return &domain.Cart{UserID: userID}, nil
		}
		return nil, err
	}
	return cart, nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cache invalidate error", zap.Error(err))
	}
}
