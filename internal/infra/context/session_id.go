package context

import (
	"context"
)

const contextKeySessionID = contextKey("sessionID")

// SessionIDFromContext extracts the browsing session ID from the context.
// Returns the session ID and true if present, or empty string and false if not present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(contextKeySessionID).(string)

	return sessionID, ok
}

// WithSessionID creates a new context with the given session ID value.
// Handlers use it to scope cart, wishlist, and auth state to one session.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, contextKeySessionID, sessionID)
}
