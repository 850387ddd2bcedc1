package service

import (
	"context"
	"time"

	"github.com/21521147/book-hunter-project/internal/identity/domain"
	"github.com/21521147/book-hunter-project/internal/identity/repository"
)

type IdentityService struct {
	repo repository.UserRepository
}

func NewIdentityService(repo repository.UserRepository) *IdentityService {
	return &IdentityService{repo: repo}
}

func (s *IdentityService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetUser(ctx, userID)
}

func (s *IdentityService) Exists(ctx context.Context, userID string) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// Register stores the profile document for a provider-generated uid. The
// auth provider owns credentials; this is only the profile pass-through.
// Each registration also draws the next value from the shared sequence, the
// numeric id older clients still key on.
func (s *IdentityService) Register(ctx context.Context, userID, email string) (*domain.User, error) {
	legacyID, err := s.repo.NextLegacyID(ctx)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:        userID,
		LegacyID:  legacyID,
		Name:      email,
		Email:     email,
		Favorites: []int64{},
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *IdentityService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) error {
	return s.repo.UpdateProfile(ctx, userID, update)
}

func (s *IdentityService) AddFavorite(ctx context.Context, userID string, bookID int64) error {
	return s.repo.AddFavorite(ctx, userID, bookID)
}

func (s *IdentityService) RemoveFavorite(ctx context.Context, userID string, bookID int64) error {
	return s.repo.RemoveFavorite(ctx, userID, bookID)
}

func (s *IdentityService) ListFavorites(ctx context.Context, userID string) ([]int64, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Favorites, nil
}
