// Package store holds the per-session storefront state: cart, wishlist, and
// auth session. Each store keeps its state in memory, serializes every
// mutation behind a mutex, and writes a snapshot of the persistable subset
// through to a snapshot repository after each change.
//
// Persistence is best-effort: a failed write is logged and the in-memory
// state stays authoritative for the session.
package store

import (
	"context"
	"encoding/json"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
	"github.com/mkrupp/nextshop/internal/repo/snapshot"
)

// Storage names under which each store persists its snapshot. They mirror the
// storage keys of the web client so a session survives a client rewrite.
const (
	CartStorageKey     = "nextshop-cart"
	WishlistStorageKey = "nextshop-wishlist"
	AuthStorageKey     = "nextshop-token"
)

// persistSnapshot marshals v and writes it through to the snapshot
// repository. Failures are logged at WARN and swallowed.
func persistSnapshot(
	ctx context.Context,
	log logging.Logger,
	repo snapshot.Repository,
	sessionID domain.SessionID,
	name string,
	v any,
) {
	data, err := json.Marshal(v)
	if err != nil {
		log.WarnContext(ctx, "marshal snapshot failed", "name", name, "error", err)

		return
	}

	if err := repo.Store(ctx, sessionID, name, data); err != nil {
		log.WarnContext(ctx, "persist snapshot failed", "name", name, "error", err)
	}
}
