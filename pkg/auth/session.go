// Package auth reads the shared session cookie and exposes the caller's
// identity through the request context. Login and logout live in a
// separate service that writes the same cookie; this engine only consumes
// it for creator attribution and role checks.
package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

// Session value keys written by the auth service.
const (
	SessionKeyUserID   = "user_id"
	SessionKeyUsername = "username"
	SessionKeyRole     = "role"
)

// SessionStore wraps the cookie store shared with the auth service.
type SessionStore struct {
	store *sessions.CookieStore
	name  string
}

// NewSessionStore builds a cookie-based session store. The secret can be
// any passphrase - it is SHA-256 hashed to derive a 32-byte signing key
// and must match the auth service's configuration.
func NewSessionStore(secret, cookieName string, maxAgeSeconds int, secure bool) *SessionStore {
	key := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}

	return &SessionStore{store: store, name: cookieName}
}

// Identity extracts the authenticated identity from the request's session
// cookie. Returns nil when the request carries no valid session.
func (s *SessionStore) Identity(r *http.Request) *Identity {
	session, err := s.store.Get(r, s.name)
	if err != nil || session.IsNew {
		return nil
	}

	userID, ok := session.Values[SessionKeyUserID].(int)
	if !ok || userID == 0 {
		return nil
	}

	username, _ := session.Values[SessionKeyUsername].(string)
	role, _ := session.Values[SessionKeyRole].(string)

	return &Identity{UserID: userID, Username: username, Role: role}
}

// Issue writes an identity into the session cookie. Only used by tests
// and local tooling; production sessions are issued by the auth service.
func (s *SessionStore) Issue(w http.ResponseWriter, r *http.Request, id *Identity) error {
	session, err := s.store.New(r, s.name)
	if err != nil {
		return err
	}
	session.Values[SessionKeyUserID] = id.UserID
	session.Values[SessionKeyUsername] = id.Username
	session.Values[SessionKeyRole] = id.Role
	return session.Save(r, w)
}
