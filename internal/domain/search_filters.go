package domain

// Sort orders accepted by catalog queries.
const (
	SortName      = "name"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortRating    = "rating"
	SortNewest    = "newest"
)

// SearchFilters narrows and orders a catalog product query.
// Zero values mean "no constraint".
type SearchFilters struct {
	Query    string  // Substring match against name and description
	Category string  // Category slug
	MinPrice float64 // Inclusive lower price bound
	MaxPrice float64 // Inclusive upper price bound
	Rating   float64 // Minimum average rating
	Brand    string  // Exact brand match
	SortBy   string  // One of the Sort* constants; empty means name order
}
