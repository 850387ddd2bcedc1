package service

import (
	"context"
	"errors"
	"time"

	"github.com/21521147/book-hunter-project/internal/catalog/domain"
	"github.com/21521147/book-hunter-project/internal/catalog/repository"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BookCatalog is the slice of the catalog that checkout snapshots prices from.
type BookCatalog interface {
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
}

// BreakerCatalog wraps the catalog behind a circuit breaker so a failing
// catalog sheds checkout load fast instead of stacking timeouts.
type BreakerCatalog struct {
	catalog BookCatalog
	cb      *gobreaker.CircuitBreaker[*domain.Book]
}

func NewBreakerCatalog(catalog BookCatalog, logger *zap.Logger) *BreakerCatalog {
	settings := gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 3,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// A missing book is a caller problem, not a catalog outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, repository.ErrBookNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &BreakerCatalog{
		catalog: catalog,
		cb:      gobreaker.NewCircuitBreaker[*domain.Book](settings),
	}
}

func (b *BreakerCatalog) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	book, err := b.cb.Execute(func() (*domain.Book, error) {
		return b.catalog.GetBook(ctx, id)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCatalogUnavailable
	}
	return book, err
}
