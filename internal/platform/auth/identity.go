package auth

import (
	"context"
	"strings"
)

// Roles carried in the Firebase "role" custom claim.
const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// Identity is the Firebase principal behind a dashboard request.
type Identity struct {
	UID   string
	Email string
	Roles []string
}

// HasAnyRole reports whether the identity carries one of roles (case-insensitive).
func (i *Identity) HasAnyRole(roles ...string) bool {
	if i == nil {
		return false
	}
	for _, want := range roles {
		want = normaliseRole(want)
		if want == "" {
			continue
		}
		for _, have := range i.Roles {
			if normaliseRole(have) == want {
				return true
			}
		}
	}
	return false
}

type identityKey struct{}

// WithIdentity stores the identity on ctx.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by RequireRoles.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

func normaliseRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
