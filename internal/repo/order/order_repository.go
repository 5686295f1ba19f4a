package order

import (
	"context"

	"github.com/mkrupp/nextshop/internal/domain"
)

// Repository defines the interface for order and support ticket persistence.
// Both are scoped to a user; listings never leak across accounts.
type Repository interface {
	// CreateOrder stores a new order for the given user and returns it with
	// its assigned ID and creation timestamp filled in.
	CreateOrder(
		ctx context.Context,
		userID int64,
		items []domain.CartItem,
		total float64,
		address domain.Address,
	) (*domain.Order, error)

	// ListOrdersByUser returns all orders of the user, newest first.
	ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error)

	// GetOrder retrieves a single order of the user.
	// Returns ErrOrderNotFound if the order does not exist or belongs to
	// another user.
	GetOrder(ctx context.Context, userID, orderID int64) (*domain.Order, error)

	// UpdateOrderStatus advances the status of an order.
	// Returns ErrOrderNotFound if the order does not exist or belongs to
	// another user.
	UpdateOrderStatus(ctx context.Context, userID, orderID int64, status string) error

	// CreateTicket stores a new support ticket for the given user and
	// returns it with its assigned ID and timestamps filled in.
	CreateTicket(
		ctx context.Context,
		userID int64,
		subject, message, priority string,
	) (*domain.SupportTicket, error)

	// ListTicketsByUser returns all support tickets of the user, newest first.
	ListTicketsByUser(ctx context.Context, userID int64) ([]domain.SupportTicket, error)

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
