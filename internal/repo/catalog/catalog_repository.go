package catalog

import (
	"context"

	"github.com/mkrupp/nextshop/internal/domain"
)

// Repository defines the interface for the product catalog. The catalog is
// read-only to the rest of the system apart from seeding; the state stores
// only ever reference products by ID.
type Repository interface {
	// ListProducts returns products matching the given filters, ordered by
	// the requested sort. Zero-valued filters are ignored.
	ListProducts(ctx context.Context, filters domain.SearchFilters) ([]domain.Product, error)

	// GetProductBySlug retrieves a product by its URL slug.
	// Returns the product and true if found, or nil and false if not found.
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, bool, error)

	// GetProductByID retrieves a product by its numeric ID.
	// Returns the product and true if found, or nil and false if not found.
	GetProductByID(ctx context.Context, id int64) (*domain.Product, bool, error)

	// ListCategories returns all categories with their product counts.
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// GetCategoryBySlug retrieves a category by its URL slug.
	// Returns the category and true if found, or nil and false if not found.
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, bool, error)

	// Seed loads categories and products into the catalog, replacing rows
	// with matching IDs. Used at startup to load fixture data.
	Seed(ctx context.Context, categories []domain.Category, products []domain.Product) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
