package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
	"github.com/mkrupp/nextshop/internal/repo/snapshot"
)

// Session bundles the three state stores of one browsing session.
type Session struct {
	ID       domain.SessionID
	Cart     *CartStore
	Wishlist *WishlistStore
	Auth     *AuthStore
}

// Manager creates and caches per-session store instances. Stores are plain
// injectable objects with an explicit lifecycle: a session's stores are
// constructed on first access, rehydrated from their persisted snapshots,
// and dropped on request.
type Manager struct {
	mu       sync.Mutex
	repo     snapshot.Repository
	log      logging.Logger
	sessions map[domain.SessionID]*Session
}

// NewManager creates a Manager with the given snapshot repository factory.
// Returns an error if the repository cannot be created.
func NewManager(repoFactory snapshot.RepositoryFactory) (*Manager, error) {
	repo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new snapshot repo: %w", err)
	}

	return &Manager{
		repo:     repo,
		log:      logging.GetLogger("store.session_manager"),
		sessions: make(map[domain.SessionID]*Session),
	}, nil
}

// Session returns the store bundle for the given session ID, creating and
// rehydrating it on first access. A store whose snapshot cannot be restored
// starts empty; the failure is logged but does not fail the session.
func (m *Manager) Session(ctx context.Context, sessionID domain.SessionID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[sessionID]; ok {
		return session
	}

	session := &Session{
		ID:       sessionID,
		Cart:     NewCartStore(sessionID, m.repo),
		Wishlist: NewWishlistStore(sessionID, m.repo),
		Auth:     NewAuthStore(sessionID, m.repo),
	}

	for name, restore := range map[string]func(context.Context) error{
		CartStorageKey:     session.Cart.Restore,
		WishlistStorageKey: session.Wishlist.Restore,
		AuthStorageKey:     session.Auth.Restore,
	} {
		if err := restore(ctx); err != nil {
			m.log.WarnContext(ctx, "restore snapshot failed",
				logging.Group("snapshot", "session", sessionID.String(), "name", name),
				"error", err,
			)
		}
	}

	m.sessions[sessionID] = session

	return session
}

// Drop removes the session's stores from memory and deletes its persisted
// snapshots. Dropping an unknown session only clears the snapshots.
func (m *Manager) Drop(ctx context.Context, sessionID domain.SessionID) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	for _, name := range []string{CartStorageKey, WishlistStorageKey, AuthStorageKey} {
		if err := m.repo.Delete(ctx, sessionID, name); err != nil {
			return fmt.Errorf("delete snapshot %s: %w", name, err)
		}
	}

	return nil
}

// Close releases the underlying snapshot repository.
func (m *Manager) Close() error {
	if err := m.repo.Close(); err != nil {
		return fmt.Errorf("close snapshot repo: %w", err)
	}

	return nil
}
