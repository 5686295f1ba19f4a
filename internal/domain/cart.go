package domain

// CartItem is a single cart line: a product snapshot plus a quantity.
// A cart holds at most one CartItem per product ID, and the quantity
// is always at least one.
type CartItem struct {
	ID       int64   `json:"id"` // Product.ID of the line
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// CartSnapshot is the persisted subset of a cart store's state.
// The open/closed UI flag is deliberately not part of the snapshot.
type CartSnapshot struct {
	Items []CartItem `json:"items"`
	Total float64    `json:"total"`
}
