package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kaizenlab/defectdb-engine/pkg/models"
)

func newTestSessionStore() *SessionStore {
	return NewSessionStore("test-secret", "defectdb_session", 3600, false)
}

// requestWithSession builds a request carrying a valid session cookie
// for the given identity.
func requestWithSession(t *testing.T, store *SessionStore, id *Identity) *http.Request {
	t.Helper()

	issue := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, store.Issue(rec, issue, id))

	req := httptest.NewRequest(http.MethodGet, "/api/defects", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

func TestRequireAuth_RejectsMissingSession(t *testing.T) {
	m := NewMiddleware(newTestSessionStore(), zap.NewNop())

	called := false
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) { called = true })

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/defects", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Body.String(), "AUTHENTICATION_ERROR")
	assert.Contains(t, rec.Body.String(), "認証が必要です")
}

func TestRequireAuth_InjectsIdentity(t *testing.T) {
	store := newTestSessionStore()
	m := NewMiddleware(store, zap.NewNop())

	var got *Identity
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetIdentity(r.Context())
	})

	req := requestWithSession(t, store, &Identity{UserID: 7, Username: "tanaka", Role: models.RoleUser})
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.UserID)
	assert.Equal(t, "tanaka", got.Username)
	assert.Equal(t, models.RoleUser, got.Role)
}

func TestRequireAuth_RejectsForeignCookie(t *testing.T) {
	// A session signed with a different secret must not verify.
	foreign := NewSessionStore("other-secret", "defectdb_session", 3600, false)
	m := NewMiddleware(newTestSessionStore(), zap.NewNop())

	called := false
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := requestWithSession(t, foreign, &Identity{UserID: 1, Role: models.RoleAdmin})
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAdmin_RejectsNonAdmin(t *testing.T) {
	store := newTestSessionStore()
	m := NewMiddleware(store, zap.NewNop())

	called := false
	handler := m.RequireAdmin(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := requestWithSession(t, store, &Identity{UserID: 2, Username: "suzuki", Role: models.RoleUser})
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Body.String(), "AUTHORIZATION_ERROR")
	assert.Contains(t, rec.Body.String(), "管理者権限が必要です")
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	store := newTestSessionStore()
	m := NewMiddleware(store, zap.NewNop())

	called := false
	handler := m.RequireAdmin(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := requestWithSession(t, store, &Identity{UserID: 1, Username: "admin", Role: models.RoleAdmin})
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRequireAdmin_UnauthenticatedIs401Not403(t *testing.T) {
	m := NewMiddleware(newTestSessionStore(), zap.NewNop())

	handler := m.RequireAdmin(func(w http.ResponseWriter, r *http.Request) {})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodDelete, "/api/defects/1", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
