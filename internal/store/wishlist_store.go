package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
	"github.com/mkrupp/nextshop/internal/repo/snapshot"
)

// WishlistStore holds a session's saved products, deduplicated by product ID
// and stamped with the time they were saved.
type WishlistStore struct {
	mu        sync.Mutex
	sessionID domain.SessionID
	repo      snapshot.Repository
	log       logging.Logger

	items []domain.WishlistItem
}

// NewWishlistStore creates an empty wishlist store for the given session.
func NewWishlistStore(sessionID domain.SessionID, repo snapshot.Repository) *WishlistStore {
	return &WishlistStore{
		sessionID: sessionID,
		repo:      repo,
		log: logging.GetLogger("store.wishlist_store").With(
			logging.Group("session", "id", sessionID.String()),
		),
	}
}

// Restore rehydrates the wishlist from its persisted snapshot, if one exists.
// Returns an error if the snapshot cannot be read or decoded; the wishlist
// is left empty in that case.
func (s *WishlistStore) Restore(ctx context.Context) error {
	data, ok, err := s.repo.Fetch(ctx, s.sessionID, WishlistStorageKey)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	} else if !ok {
		return nil
	}

	var snap domain.WishlistSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = snap.Items

	return nil
}

// AddItem saves the product to the wishlist. Adding a product that is
// already saved is a no-op.
func (s *WishlistStore) AddItem(ctx context.Context, product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == product.ID {
			return
		}
	}

	s.items = append(s.items, domain.WishlistItem{
		ID:      product.ID,
		Product: product,
		AddedAt: time.Now().UTC(),
	})

	s.persist(ctx)
}

// RemoveItem deletes the entry for the given product ID.
// Removing an absent product is a no-op.
func (s *WishlistStore) RemoveItem(ctx context.Context, productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.items[:0]

	for _, item := range s.items {
		if item.ID != productID {
			items = append(items, item)
		}
	}

	s.items = items

	s.persist(ctx)
}

// Contains reports whether the given product ID is saved in the wishlist.
func (s *WishlistStore) Contains(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == productID {
			return true
		}
	}

	return false
}

// Clear empties the wishlist.
func (s *WishlistStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil

	s.persist(ctx)
}

// Items returns a copy of the wishlist entries in insertion order.
func (s *WishlistStore) Items() []domain.WishlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.WishlistItem, len(s.items))
	copy(items, s.items)

	return items
}

// Snapshot returns the persistable subset of the wishlist state.
func (s *WishlistStore) Snapshot() domain.WishlistSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

func (s *WishlistStore) snapshotLocked() domain.WishlistSnapshot {
	items := make([]domain.WishlistItem, len(s.items))
	copy(items, s.items)

	return domain.WishlistSnapshot{Items: items}
}

func (s *WishlistStore) persist(ctx context.Context) {
	persistSnapshot(ctx, s.log, s.repo, s.sessionID, WishlistStorageKey, s.snapshotLocked())
}
