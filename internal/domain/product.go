package domain

import "errors"

var (
	// ErrProductNotFound is returned when looking up a non-existent product.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound is returned when looking up a non-existent category.
	ErrCategoryNotFound = errors.New("category not found")
)

// Product represents a catalog product. Products are read-only to the state
// stores; the stores reference them by ID and keep a snapshot of the record
// as it was when it entered a cart or wishlist.
type Product struct {
	ID           int64    `json:"id"`           // Unique, stable identifier
	Name         string   `json:"name"`         // Display name
	Slug         string   `json:"slug"`         // URL-safe identifier
	Price        float64  `json:"price"`        // Unit price, non-negative
	Image        string   `json:"image"`        // Image filename or URL
	Description  string   `json:"description"`  // Long-form description
	Category     string   `json:"category"`     // Category display name
	CategorySlug string   `json:"categorySlug"` // Category URL-safe identifier
	Stock        int      `json:"stock"`        // Units in stock, non-negative
	Rating       float64  `json:"rating"`       // Average rating, 0..5
	Reviews      int      `json:"reviews"`      // Number of reviews
	Brand        string   `json:"brand,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Category represents a product category.
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	ProductCount int    `json:"productCount"` // Number of products in the category
}
