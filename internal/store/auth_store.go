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

// AuthStore holds a session's authentication state: the signed-in user, the
// auth token, and a loading flag for in-flight auth calls.
//
// Whether the session is authenticated is derived from user and token being
// both present, never stored on its own. The persisted snapshot carries the
// boolean for wire compatibility, but restore ignores it and re-derives.
type AuthStore struct {
	mu        sync.Mutex
	sessionID domain.SessionID
	repo      snapshot.Repository
	log       logging.Logger

	user      *domain.User
	token     string
	isLoading bool
}

// NewAuthStore creates an anonymous auth store for the given session.
func NewAuthStore(sessionID domain.SessionID, repo snapshot.Repository) *AuthStore {
	return &AuthStore{
		sessionID: sessionID,
		repo:      repo,
		log: logging.GetLogger("store.auth_store").With(
			logging.Group("session", "id", sessionID.String()),
		),
	}
}

// Restore rehydrates the auth state from its persisted snapshot, if one
// exists. Returns an error if the snapshot cannot be read or decoded; the
// store stays anonymous in that case.
func (s *AuthStore) Restore(ctx context.Context) error {
	data, ok, err := s.repo.Fetch(ctx, s.sessionID, AuthStorageKey)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	} else if !ok {
		return nil
	}

	var snap domain.AuthSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = snap.User
	s.token = snap.Token

	return nil
}

// Login stores the user and token, replacing any prior session
// unconditionally, and clears the loading flag.
func (s *AuthStore) Login(ctx context.Context, user domain.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = &user
	s.token = token
	s.isLoading = false

	s.persist(ctx)
}

// Logout clears the user and token, returning the session to anonymous.
func (s *AuthStore) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.token = ""
	s.isLoading = false

	s.persist(ctx)
}

// UpdateUser replaces the user record without touching the token. Used for
// profile edits; it does not re-validate the token. Updating while
// anonymous is a no-op.
func (s *AuthStore) UpdateUser(ctx context.Context, user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return
	}

	s.user = &user

	s.persist(ctx)
}

// SetLoading sets the loading flag for in-flight auth calls. The flag is
// independent of the other fields and not part of the persisted snapshot.
func (s *AuthStore) SetLoading(isLoading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isLoading = isLoading
}

// IsAuthenticated reports whether the session has both a user and a token.
func (s *AuthStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.isAuthenticatedLocked()
}

// User returns the signed-in user, or nil when anonymous.
func (s *AuthStore) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}

	user := *s.user

	return &user
}

// Token returns the auth token, or the empty string when anonymous.
func (s *AuthStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token
}

// IsLoading returns the loading flag.
func (s *AuthStore) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.isLoading
}

// Snapshot returns the persistable subset of the auth state.
func (s *AuthStore) Snapshot() domain.AuthSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

func (s *AuthStore) isAuthenticatedLocked() bool {
	return s.user != nil && s.token != ""
}

func (s *AuthStore) snapshotLocked() domain.AuthSnapshot {
	var user *domain.User

	if s.user != nil {
		u := *s.user
		user = &u
	}

	return domain.AuthSnapshot{
		User:            user,
		Token:           s.token,
		IsAuthenticated: s.isAuthenticatedLocked(),
	}
}

func (s *AuthStore) persist(ctx context.Context) {
	persistSnapshot(ctx, s.log, s.repo, s.sessionID, AuthStorageKey, s.snapshotLocked())
}
