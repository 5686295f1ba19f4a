package user

import (
	"context"

	"github.com/mkrupp/nextshop/internal/domain"
)

// Repository defines the interface for user account persistence.
type Repository interface {
	// CreateUser adds a new user account.
	// Returns ErrUserAlreadyExists if the email is already taken.
	CreateUser(ctx context.Context, email, name string, passwordHash []byte) error

	// GetUserByEmail retrieves a user by their login email.
	// Returns the user object and true if found, or nil and false if not found.
	// Returns an error if the operation fails.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, bool, error)

	// UpdateUser replaces the mutable profile fields (name, avatar) of the
	// user identified by email. Returns ErrUserNotFound if no such user exists.
	UpdateUser(ctx context.Context, email, name, avatar string) (*domain.User, error)

	// Close releases any resources held by the repository.
	// Returns an error if cleanup fails.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
