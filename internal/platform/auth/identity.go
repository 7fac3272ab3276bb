package auth

import (
	"context"
	"strings"
)

// Role constants checked at authorisation boundaries.
const (
	RoleCashier = "cashier"
	RoleManager = "manager"
)

// Identity is the authenticated employee extracted from a session token.
type Identity struct {
	EmployeeID string
	Name       string
	Role       string
}

// HasRole reports whether the identity carries the requested role.
// Managers implicitly cover cashier-level access.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	role = normaliseRole(role)
	if role == "" {
		return false
	}
	if strings.EqualFold(i.Role, role) {
		return true
	}
	return role == RoleCashier && strings.EqualFold(i.Role, RoleManager)
}

// HasAnyRole reports whether the identity carries any of the given roles.
func (i *Identity) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if i.HasRole(role) {
			return true
		}
	}
	return false
}

type contextKey string

const identityContextKey contextKey = "github.com/pearlpos/api/internal/platform/auth/identity"

// WithIdentity stores the identity within the context for downstream handlers.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity previously stored in context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

func normaliseRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
