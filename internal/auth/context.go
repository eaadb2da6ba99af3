package auth

import (
	"context"

	"github.com/talentum-plus/talentum/internal/models"
)

type identityKey struct{}

// WithIdentity stores the caller identity in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller identity, or nil for anonymous requests.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// HasRole reports whether the identity holds one of roles.
func (i *Identity) HasRole(roles ...string) bool {
	if i == nil {
		return false
	}
	for _, role := range roles {
		if i.Role == role {
			return true
		}
	}
	return false
}

// IsStaff reports whether the caller is an admin or a recruiter.
func (i *Identity) IsStaff() bool {
	return i.HasRole(models.RoleAdmin, models.RoleRecruiter)
}
