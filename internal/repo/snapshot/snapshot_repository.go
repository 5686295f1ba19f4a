package snapshot

import (
	"context"

	"github.com/mkrupp/nextshop/internal/domain"
)

// Repository defines the interface for persisted store snapshots.
// A snapshot is the serializable subset of a state store, keyed by the
// browsing session it belongs to and the store's storage name.
//
// Writes are best-effort from the caller's point of view: the state stores
// log and swallow persistence errors, keeping the in-memory state
// authoritative for the session.
type Repository interface {
	// Store persists the snapshot payload for the given session and store name,
	// replacing any previous payload.
	Store(ctx context.Context, sessionID domain.SessionID, name string, data []byte) error

	// Fetch retrieves the snapshot payload for the given session and store name.
	// Returns the payload and true if present, or nil and false if no snapshot
	// has been persisted yet.
	Fetch(ctx context.Context, sessionID domain.SessionID, name string) ([]byte, bool, error)

	// Delete removes the snapshot for the given session and store name.
	// Deleting a non-existent snapshot is not an error.
	Delete(ctx context.Context, sessionID domain.SessionID, name string) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
