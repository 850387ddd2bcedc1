package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/21521147/book-hunter-project/internal/catalog/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"
)

var ErrBookNotFound = errors.New("book not found")

type Repository struct {
	db *sql.DB
}

type RepoInterface interface {
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	ListBooks(ctx context.Context) ([]*domain.Book, error)
	ListByGenre(ctx context.Context, genre string) ([]*domain.Book, error)
	Search(ctx context.Context, title string) ([]*domain.Book, error)
	ListFlashSale(ctx context.Context) ([]*domain.Book, error)
	Close() error
	RunMigrations(string) error
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

const bookColumns = `id, title, author, genre, description, price, image_url, rating_avg, review_count, flash_sale, created_at`

func scanBook(rows *sql.Rows) (*domain.Book, error) {
	b := &domain.Book{}
	err := rows.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Genre,
		&b.Description,
		&b.Price,
		&b.ImageURL,
		&b.RatingAvg,
		&b.ReviewCount,
		&b.FlashSale,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}
	return b, nil
}

func (r *Repository) queryBooks(ctx context.Context, query string, args ...any) ([]*domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return books, nil
}

func (r *Repository) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	books, err := r.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, ErrBookNotFound
	}
	return books[0], nil
}

func (r *Repository) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	return r.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY id`)
}

func (r *Repository) ListByGenre(ctx context.Context, genre string) ([]*domain.Book, error) {
	return r.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books WHERE genre = $1 ORDER BY id`, genre)
}

func (r *Repository) Search(ctx context.Context, title string) ([]*domain.Book, error) {
	return r.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books WHERE title LIKE '%' || $1 || '%' ORDER BY id`, title)
}

func (r *Repository) ListFlashSale(ctx context.Context) ([]*domain.Book, error) {
	return r.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books WHERE flash_sale = TRUE ORDER BY id`)
}

func (r *Repository) Close() error {
	return r.db.Close()
}
