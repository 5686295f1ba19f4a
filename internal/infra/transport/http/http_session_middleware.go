package http

import (
	"net/http"

	context_ "github.com/mkrupp/nextshop/internal/infra/context"
	"github.com/mkrupp/nextshop/internal/util/encoding"
	"github.com/mkrupp/nextshop/internal/util/uuid"
)

const (
	// SessionIDHeader carries the browsing session ID on requests and responses.
	SessionIDHeader = "X-Session-ID"
	// SessionIDCookie is the fallback cookie name for the session ID.
	SessionIDCookie = "nextshop-session"
)

// SessionMiddleware creates middleware that attaches a browsing session ID to
// every request. The ID is taken from the X-Session-ID header, then from the
// session cookie; if neither is present a new UUIDv7-based ID is minted.
// The resolved ID is echoed back in the response header and cookie so clients
// keep a stable session across requests.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := getSessionID(r)

		w.Header().Set(SessionIDHeader, sessionID)
		http.SetCookie(w, &http.Cookie{
			Name:     SessionIDCookie,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
		})

		ctx := context_.WithSessionID(r.Context(), sessionID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getSessionID(r *http.Request) string {
	if sessionID := r.Header.Get(SessionIDHeader); sessionID != "" {
		return sessionID
	}

	if cookie, err := r.Cookie(SessionIDCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	uuid, err := uuid.New(uuid.UUIDv7)
	if err != nil {
		return ""
	}

	return encoding.EncodeCrockfordB32LC(uuid.Bytes())
}
