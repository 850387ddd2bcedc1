package service

import (
	"context"
	"math/rand"

	"github.com/21521147/book-hunter-project/internal/catalog/domain"
	"github.com/21521147/book-hunter-project/internal/catalog/repository"
)

type CatalogService struct {
	repo repository.RepoInterface
}

func NewCatalogService(repo repository.RepoInterface) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *CatalogService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	return s.repo.ListBooks(ctx)
}

func (s *CatalogService) ListByGenre(ctx context.Context, genre string) ([]*domain.Book, error) {
	return s.repo.ListByGenre(ctx, genre)
}

func (s *CatalogService) Search(ctx context.Context, title string) ([]*domain.Book, error) {
	return s.repo.Search(ctx, title)
}

// FlashSale returns up to n randomly sampled books from the flash-sale shelf.
func (s *CatalogService) FlashSale(ctx context.Context, n int) ([]*domain.Book, error) {
	books, err := s.repo.ListFlashSale(ctx)
	if err != nil {
		return nil, err
	}

	if n <= 0 || len(books) <= n {
		return books, nil
	}

	rand.Shuffle(len(books), func(i, j int) {
		books[i], books[j] = books[j], books[i]
	})
	return books[:n], nil
}
