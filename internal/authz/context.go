package authz

import (
	"context"
	"net/http"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

type identityKey struct{}

// Identity is the authenticated caller of a request.
type Identity struct {
	TenantID string
	UserID   string
	Roles    []models.UserRole
}

// Actor names the caller in audit entries.
func (id Identity) Actor() string {
	if id.UserID == "" {
		return "unknown"
	}
	return id.UserID
}

// WithIdentity stores the caller on the context with its roles normalized.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	id.Roles = models.NormalizeRoles(id.Roles)
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller, if the request passed the JWT middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.TenantID == "" {
		return Identity{}, false
	}
	return id, true
}

func RolesFromRequest(r *http.Request) ([]models.UserRole, bool) {
	id, ok := FromContext(r.Context())
	if !ok || !models.IsValidRoleList(id.Roles) {
		return nil, false
	}
	return id.Roles, true
}
