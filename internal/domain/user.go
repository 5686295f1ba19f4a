package domain

import "errors"

var (
	// ErrUserAlreadyExists is returned when trying to create a user with an existing email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the email/password combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User represents a registered shop account.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"` // Login identifier, unique
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedAt int64  `json:"-"` // Unix timestamp of account creation

	PasswordHash []byte `json:"-"` // Never serialized
}
