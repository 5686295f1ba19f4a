package domain

// SessionID identifies a browsing session. Cart, wishlist, and auth state
// are scoped and persisted per session.
type SessionID string

// String returns the session ID as a plain string.
func (id SessionID) String() string {
	return string(id)
}
