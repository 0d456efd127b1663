package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kaizenlab/defectdb-engine/pkg/apperrors"
	"github.com/kaizenlab/defectdb-engine/pkg/models"
)

// Middleware guards handlers behind the session cookie.
type Middleware struct {
	sessions *SessionStore
	logger   *zap.Logger
}

// NewMiddleware creates the auth middleware.
func NewMiddleware(sessions *SessionStore, logger *zap.Logger) *Middleware {
	return &Middleware{sessions: sessions, logger: logger}
}

// RequireAuth rejects unauthenticated requests with 401 and otherwise
// injects the caller's identity into the request context.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := m.sessions.Identity(r)
		if id == nil {
			m.writeError(w, http.StatusUnauthorized, apperrors.CodeAuthentication, "認証が必要です")
			return
		}
		next(w, r.WithContext(WithIdentity(r.Context(), id)))
	}
}

// RequireAdmin rejects unauthenticated requests with 401 and
// authenticated non-admin callers with 403.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetIdentity(r.Context())
		if id.Role != models.RoleAdmin {
			m.writeError(w, http.StatusForbidden, apperrors.CodeAuthorization, "管理者権限が必要です")
			return
		}
		next(w, r)
	})
}

// writeError emits the structured error envelope. Duplicated from the
// handlers package to keep auth free of an import cycle.
func (m *Middleware) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]any{
			"code":      code,
			"message":   message,
			"details":   nil,
			"timestamp": time.Now().Format(models.TimestampFormat),
		},
	})
	if err != nil {
		m.logger.Error("Failed to write auth error response", zap.Error(err))
	}
}
