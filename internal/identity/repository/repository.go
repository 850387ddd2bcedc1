package repository

import (
	"context"
	"errors"

	"github.com/21521147/book-hunter-project/internal/identity/domain"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the interface for user data operations
// Consumers define this interface, not the MongoDB implementation
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	Exists(ctx context.Context, userID string) (bool, error)
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) error
	AddFavorite(ctx context.Context, userID string, bookID int64) error
	RemoveFavorite(ctx context.Context, userID string, bookID int64) error
	NextLegacyID(ctx context.Context) (int64, error)
}
