package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
	"github.com/mkrupp/nextshop/internal/repo/snapshot"
)

// CartStore holds a session's cart: an ordered list of line items, the
// derived total, and the open/closed UI flag.
//
// Invariants, upheld after every mutation:
//   - at most one line item per product ID
//   - every line item has quantity >= 1
//   - the total equals the sum of price*quantity over all lines, recomputed
//     from the items rather than patched incrementally
//
// Setting a quantity to zero or below removes the line item; the store never
// holds a non-positive quantity.
type CartStore struct {
	mu        sync.Mutex
	sessionID domain.SessionID
	repo      snapshot.Repository
	log       logging.Logger

	items  []domain.CartItem
	total  float64
	isOpen bool
}

// NewCartStore creates an empty cart store for the given session.
func NewCartStore(sessionID domain.SessionID, repo snapshot.Repository) *CartStore {
	return &CartStore{
		sessionID: sessionID,
		repo:      repo,
		log: logging.GetLogger("store.cart_store").With(
			logging.Group("session", "id", sessionID.String()),
		),
	}
}

// Restore rehydrates the cart from its persisted snapshot, if one exists.
// The total is recomputed from the restored items so a drifted snapshot
// cannot poison the invariant. Returns an error if the snapshot cannot be
// read or decoded; the cart is left empty in that case.
func (s *CartStore) Restore(ctx context.Context) error {
	data, ok, err := s.repo.Fetch(ctx, s.sessionID, CartStorageKey)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	} else if !ok {
		return nil
	}

	var snap domain.CartSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = snap.Items
	s.total = recomputeTotal(s.items)

	return nil
}

// AddItem adds quantity units of the product to the cart. If a line for the
// product already exists its quantity is incremented, preserving the
// insertion order of the first add; otherwise a new line is appended.
// Quantities below one are treated as one. Adding always opens the cart so
// the UI can show feedback.
func (s *CartStore) AddItem(ctx context.Context, product domain.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found := false

	for i := range s.items {
		if s.items[i].ID == product.ID {
			s.items[i].Quantity += quantity
			found = true

			break
		}
	}

	if !found {
		s.items = append(s.items, domain.CartItem{
			ID:       product.ID,
			Product:  product,
			Quantity: quantity,
		})
	}

	s.total = recomputeTotal(s.items)
	s.isOpen = true

	s.persist(ctx)
}

// RemoveItem deletes the line item for the given product ID.
// Removing an absent product is a no-op.
func (s *CartStore) RemoveItem(ctx context.Context, productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(ctx, productID)
}

// UpdateQuantity sets the quantity of the line item for the given product ID.
// A quantity of zero or below removes the line item entirely.
// Updating an absent product is a no-op.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID int64, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(ctx, productID)

		return
	}

	for i := range s.items {
		if s.items[i].ID == productID {
			s.items[i].Quantity = quantity
			s.total = recomputeTotal(s.items)

			s.persist(ctx)

			return
		}
	}
}

// Clear empties the cart, zeroes the total, and closes the cart flag.
func (s *CartStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.total = 0
	s.isOpen = false

	s.persist(ctx)
}

// Toggle flips the open/closed UI flag. It has no effect on items or total
// and is not part of the persisted snapshot.
func (s *CartStore) Toggle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isOpen = !s.isOpen
}

// SetOpen sets the open/closed UI flag.
func (s *CartStore) SetOpen(isOpen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isOpen = isOpen
}

// Items returns a copy of the cart's line items in insertion order.
func (s *CartStore) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.CartItem, len(s.items))
	copy(items, s.items)

	return items
}

// Total returns the cart total.
func (s *CartStore) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.total
}

// IsOpen returns the open/closed UI flag.
func (s *CartStore) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.isOpen
}

// Count returns the total number of units in the cart, the value shown on
// the cart badge.
func (s *CartStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}

	return count
}

// Snapshot returns the persistable subset of the cart state.
func (s *CartStore) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

func (s *CartStore) removeLocked(ctx context.Context, productID int64) {
	items := s.items[:0]

	for _, item := range s.items {
		if item.ID != productID {
			items = append(items, item)
		}
	}

	s.items = items
	s.total = recomputeTotal(s.items)

	s.persist(ctx)
}

func (s *CartStore) snapshotLocked() domain.CartSnapshot {
	items := make([]domain.CartItem, len(s.items))
	copy(items, s.items)

	return domain.CartSnapshot{
		Items: items,
		Total: s.total,
	}
}

func (s *CartStore) persist(ctx context.Context) {
	persistSnapshot(ctx, s.log, s.repo, s.sessionID, CartStorageKey, s.snapshotLocked())
}

func recomputeTotal(items []domain.CartItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Product.Price * float64(item.Quantity)
	}

	return total
}
