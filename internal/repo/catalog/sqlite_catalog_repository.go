package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // database driver

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
)

// SQLiteCatalogRepositoryConfig holds configuration for the SQLite catalog repository.
type SQLiteCatalogRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/catalog.db"`
}

// SQLiteCatalogRepository implements Repository using SQLite as the storage backend.
type SQLiteCatalogRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteCatalogRepository)(nil)

// SQLiteCatalogRepositoryFactory creates a factory function that returns a new
// SQLiteCatalogRepository. The factory function implements the RepositoryFactory type.
func SQLiteCatalogRepositoryFactory(cfg SQLiteCatalogRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteCatalogRepository(cfg)
	}
}

// NewSQLiteCatalogRepository creates a new SQLiteCatalogRepository with the given
// configuration. It initializes the database connection and creates the schema if needed.
// Returns an error if database connection or initialization fails.
func NewSQLiteCatalogRepository(cfg SQLiteCatalogRepositoryConfig) (*SQLiteCatalogRepository, error) {
	log := logging.GetLogger("repo.catalog.sqlite_catalog_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	repo := NewSQLiteCatalogRepositoryWithDB(db, log)

	if err := repo.initializeDB(); err != nil {
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	return repo, nil
}

// NewSQLiteCatalogRepositoryWithDB wraps an existing database handle.
// The schema is not created; used by tests that bring their own handle.
func NewSQLiteCatalogRepositoryWithDB(db *sql.DB, log logging.Logger) *SQLiteCatalogRepository {
	return &SQLiteCatalogRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}
}

func (r *SQLiteCatalogRepository) initializeDB() error {
	if _, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS categories (
			id          INTEGER PRIMARY KEY,
			name        TEXT    NOT NULL,
			slug        TEXT    UNIQUE NOT NULL,
			description TEXT    NOT NULL DEFAULT '',
			image       TEXT    NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS products (
			id            INTEGER PRIMARY KEY,
			name          TEXT    NOT NULL,
			slug          TEXT    UNIQUE NOT NULL,
			price         REAL    NOT NULL,
			image         TEXT    NOT NULL DEFAULT '',
			description   TEXT    NOT NULL DEFAULT '',
			category      TEXT    NOT NULL DEFAULT '',
			category_slug TEXT    NOT NULL DEFAULT '',
			stock         INTEGER NOT NULL DEFAULT 0,
			rating        REAL    NOT NULL DEFAULT 0,
			reviews       INTEGER NOT NULL DEFAULT 0,
			brand         TEXT    NOT NULL DEFAULT '',
			tags          TEXT    NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_products_category_slug ON products (category_slug);
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

const productColumns = "id, name, slug, price, image, description, category, category_slug, " +
	"stock, rating, reviews, brand, tags"

// ListProducts implements Repository.ListProducts using SQLite.
func (r *SQLiteCatalogRepository) ListProducts(
	ctx context.Context,
	filters domain.SearchFilters,
) ([]domain.Product, error) {
	query, args := buildProductQuery(filters)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// GetProductBySlug implements Repository.GetProductBySlug using SQLite.
func (r *SQLiteCatalogRepository) GetProductBySlug(
	ctx context.Context,
	slug string,
) (*domain.Product, bool, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE slug = ?",
		slug,
	)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrProductNotFound, err)
		}

		return nil, false, fmt.Errorf("query product: %w", err)
	}

	return &product, true, nil
}

// GetProductByID implements Repository.GetProductByID using SQLite.
func (r *SQLiteCatalogRepository) GetProductByID(
	ctx context.Context,
	id int64,
) (*domain.Product, bool, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ?",
		id,
	)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrProductNotFound, err)
		}

		return nil, false, fmt.Errorf("query product: %w", err)
	}

	return &product, true, nil
}

// ListCategories implements Repository.ListCategories using SQLite.
// Product counts are computed from the products table.
func (r *SQLiteCatalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.image,
			(SELECT COUNT(*) FROM products p WHERE p.category_slug = c.slug) AS product_count
		FROM categories c
		ORDER BY c.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}

	for rows.Next() {
		var category domain.Category

		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Slug,
			&category.Description,
			&category.Image,
			&category.ProductCount,
		); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}

		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

// GetCategoryBySlug implements Repository.GetCategoryBySlug using SQLite.
func (r *SQLiteCatalogRepository) GetCategoryBySlug(
	ctx context.Context,
	slug string,
) (*domain.Category, bool, error) {
	var category domain.Category

	err := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.image,
			(SELECT COUNT(*) FROM products p WHERE p.category_slug = c.slug) AS product_count
		FROM categories c
		WHERE c.slug = ?
	`, slug).Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.Image,
		&category.ProductCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrCategoryNotFound, err)
		}

		return nil, false, fmt.Errorf("query category: %w", err)
	}

	return &category, true, nil
}

// Seed implements Repository.Seed using SQLite.
func (r *SQLiteCatalogRepository) Seed(
	ctx context.Context,
	categories []domain.Category,
	products []domain.Product,
) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, category := range categories {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO categories (id, name, slug, description, image)
			VALUES (?, ?, ?, ?, ?)
		`,
			category.ID, category.Name, category.Slug, category.Description, category.Image,
		); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
	}

	for _, product := range products {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO products (`+productColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			product.ID, product.Name, product.Slug, product.Price, product.Image,
			product.Description, product.Category, product.CategorySlug, product.Stock,
			product.Rating, product.Reviews, product.Brand, strings.Join(product.Tags, ","),
		); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	r.log.DebugContext(ctx, "catalog seeded",
		logging.Group("seed", "categories", len(categories), "products", len(products)),
	)

	return nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteCatalogRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

// buildProductQuery translates search filters into a SQL query and its
// arguments. Zero-valued filters contribute no clause.
func buildProductQuery(filters domain.SearchFilters) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if filters.Query != "" {
		clauses = append(clauses, "(name LIKE ? OR description LIKE ?)")
		pattern := "%" + filters.Query + "%"
		args = append(args, pattern, pattern)
	}

	if filters.Category != "" {
		clauses = append(clauses, "category_slug = ?")
		args = append(args, filters.Category)
	}

	if filters.MinPrice > 0 {
		clauses = append(clauses, "price >= ?")
		args = append(args, filters.MinPrice)
	}

	if filters.MaxPrice > 0 {
		clauses = append(clauses, "price <= ?")
		args = append(args, filters.MaxPrice)
	}

	if filters.Rating > 0 {
		clauses = append(clauses, "rating >= ?")
		args = append(args, filters.Rating)
	}

	if filters.Brand != "" {
		clauses = append(clauses, "brand = ?")
		args = append(args, filters.Brand)
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY " + sortClause(filters.SortBy)

	return query, args
}

func sortClause(sortBy string) string {
	switch sortBy {
	case domain.SortPriceLow:
		return "price ASC"
	case domain.SortPriceHigh:
		return "price DESC"
	case domain.SortRating:
		return "rating DESC"
	case domain.SortNewest:
		return "id DESC"
	case domain.SortName:
		fallthrough
	default:
		return "name ASC"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		product domain.Product
		tags    string
	)

	if err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Slug,
		&product.Price,
		&product.Image,
		&product.Description,
		&product.Category,
		&product.CategorySlug,
		&product.Stock,
		&product.Rating,
		&product.Reviews,
		&product.Brand,
		&tags,
	); err != nil {
		return domain.Product{}, err
	}

	if tags != "" {
		product.Tags = strings.Split(tags, ",")
	}

	return product, nil
}
