package security

import (
	"context"
	"slices"
	"time"

	"dentalclinic/internal/model"
)

// Principal is the authenticated caller derived from a validated access token.
type Principal struct {
	Username    string
	Roles       []string
	Permissions []string
	TokenID     string
	ExpiresAt   time.Time
}

// PrincipalFromClaims builds a Principal from access token claims.
func PrincipalFromClaims(c *Claims) *Principal {
	p := &Principal{
		Username:    c.Subject,
		Roles:       c.Roles,
		Permissions: c.Permissions,
		TokenID:     c.ID,
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}

func (p *Principal) IsAdmin() bool {
	return p.HasRole(model.RoleAdmin)
}

func (p *Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// HasAny reports whether the principal is an admin or holds at least one of perms.
func (p *Principal) HasAny(perms ...string) bool {
	if p.IsAdmin() {
		return true
	}
	for _, perm := range perms {
		if slices.Contains(p.Permissions, perm) {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
