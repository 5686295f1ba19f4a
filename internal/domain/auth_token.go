package domain

import "errors"

var (
	// ErrNoAuthToken is returned when an authentication token is required but not provided.
	ErrNoAuthToken = errors.New("no auth token")
	// ErrInvalidAuthToken is returned when a token's signature is invalid or it has expired.
	ErrInvalidAuthToken = errors.New("invalid auth token")
	// ErrUnauthorized is returned when the authenticated user lacks permission.
	ErrUnauthorized = errors.New("unauthorized")
)

// AuthToken represents an authentication token with user information and validity period.
type AuthToken struct {
	Email     string `json:"email"`     // Login identifier of the authenticated user
	IssuedAt  int64  `json:"issuedAt"`  // Unix timestamp when the token was created
	ExpiresAt int64  `json:"expiresAt"` // Unix timestamp when the token expires
}

// AuthTokenResponse is the login response: the signed token plus the account it belongs to.
type AuthTokenResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// AuthSnapshot is the persisted subset of an auth store's state.
// IsAuthenticated is carried for wire compatibility but is re-derived
// from user and token on restore.
type AuthSnapshot struct {
	User            *User  `json:"user"`
	Token           string `json:"token"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}
