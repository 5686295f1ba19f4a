package domain

import "time"

// WishlistItem is a saved product with the time it was saved.
// A wishlist holds at most one entry per product ID.
type WishlistItem struct {
	ID      int64     `json:"id"` // Product.ID of the entry
	Product Product   `json:"product"`
	AddedAt time.Time `json:"addedAt"`
}

// WishlistSnapshot is the persisted subset of a wishlist store's state.
type WishlistSnapshot struct {
	Items []WishlistItem `json:"items"`
}
