package auth

import (
	"context"
	"fmt"

	"github.com/kaizenlab/defectdb-engine/pkg/models"
)

// Identity is the request-scoped authenticated caller. It is injected by
// the middleware and never read from ambient global state.
type Identity struct {
	UserID   int
	Username string
	Role     string
}

// IsAdmin reports whether the caller holds the admin role.
func (id *Identity) IsAdmin() bool {
	return id.Role == models.RoleAdmin
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the caller's identity in the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity retrieves the caller's identity from the context.
// Returns nil and false if the request is unauthenticated.
func GetIdentity(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// RequireIdentity retrieves the caller's identity and errors when absent.
// Use in services that need creator attribution.
func RequireIdentity(ctx context.Context) (*Identity, error) {
	id, ok := GetIdentity(ctx)
	if !ok {
		return nil, fmt.Errorf("identity not found in context")
	}
	return id, nil
}
