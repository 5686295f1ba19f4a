package shopsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
)

type sessionLoginRequest struct {
	Token string `json:"token"`
}

// sessionResponse is the combined snapshot of one browsing session.
type sessionResponse struct {
	Cart     domain.CartSnapshot     `json:"cart"`
	Wishlist domain.WishlistSnapshot `json:"wishlist"`
	Auth     domain.AuthSnapshot     `json:"auth"`
}

// HandleGetSession returns the combined cart, wishlist, and auth snapshot of
// the browsing session.
func (ht *HTTPTransport) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGetSession(w, r)
}

func (ht *HTTPTransport) handleGetSession(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "get session failed", "error", err)
		} else {
			log.DebugContext(ctx, "session fetched")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	session := ht.shopSvc.Sessions.Session(r.Context(), id)

	return ht.writeJSON(w, sessionResponse{
		Cart:     session.Cart.Snapshot(),
		Wishlist: session.Wishlist.Snapshot(),
		Auth:     session.Auth.Snapshot(),
	})
}

// HandleDropSession discards the browsing session's stores and their
// persisted snapshots.
func (ht *HTTPTransport) HandleDropSession(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleDropSession(w, r)
}

func (ht *HTTPTransport) handleDropSession(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "drop session failed", "error", err)
		} else {
			log.DebugContext(ctx, "session dropped")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	if err := ht.shopSvc.Sessions.Drop(r.Context(), id); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("drop session: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// HandleSessionLogin validates an auth token and binds the matching account
// to the browsing session's auth store.
// Expects a JSON body with token.
func (ht *HTTPTransport) HandleSessionLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleSessionLogin(w, r)
}

func (ht *HTTPTransport) handleSessionLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "session login failed", "error", err)
		} else {
			log.DebugContext(ctx, "session logged in")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	var req sessionLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("decode request: %w", err)
	}

	if req.Token == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return domain.ErrNoAuthToken
	}

	session := ht.shopSvc.Sessions.Session(r.Context(), id)
	session.Auth.SetLoading(true)
	defer session.Auth.SetLoading(false)

	email, ok, err := ht.authClient.Validate(r.Context(), req.Token)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("validate token: %w", err)
	} else if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

		return domain.ErrInvalidAuthToken
	}

	log = log.With(logging.Group("user", "email", email))

	account, _, err := ht.shopSvc.UserRepo.GetUserByEmail(r.Context(), email)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("get user: %w", err)
	}

	session.Auth.Login(r.Context(), *account, req.Token)

	return ht.writeJSON(w, session.Auth.Snapshot())
}

// HandleSessionLogout clears the browsing session's auth store.
func (ht *HTTPTransport) HandleSessionLogout(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleSessionLogout(w, r)
}

func (ht *HTTPTransport) handleSessionLogout(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLog(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "session logout failed", "error", err)
		} else {
			log.DebugContext(ctx, "session logged out")
		}
	}(r.Context())

	id, err := sessionID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return err
	}

	session := ht.shopSvc.Sessions.Session(r.Context(), id)
	session.Auth.Logout(r.Context())

	return ht.writeJSON(w, session.Auth.Snapshot())
}
