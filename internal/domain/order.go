package domain

import "errors"

// ErrOrderNotFound is returned when looking up a non-existent order.
var ErrOrderNotFound = errors.New("order not found")

// Order statuses, in rough lifecycle order.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// Address is a shipping address attached to an order.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Order is a placed order: the cart lines at checkout time, the derived
// total, and a shipping address. Orders are immutable once created except
// for their status.
type Order struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"-"`
	Status          string     `json:"status"`
	Total           float64    `json:"total"`
	Items           []CartItem `json:"items"`
	CreatedAt       int64      `json:"createdAt"` // Unix timestamp
	ShippingAddress Address    `json:"shippingAddress"`
}
