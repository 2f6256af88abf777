package internal

import (
	"context"
	"strings"
	"time"
)

type ctxKey string

const ContextIdentityKey ctxKey = "identity"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	Username      string   `json:"usuario"`
	Role          string   `json:"rol"`
	Organizations []string `json:"escuelas"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// ResolveOrganization reports whether the identity may touch org and returns the spelling
// to use against the store. Admins get org back trimmed; regular users get the spelling
// from their own assignment list, matched case-insensitively.
func (i *Identity) ResolveOrganization(org string) (string, bool) {
	if i == nil {
		return "", false
	}
	org = strings.TrimSpace(org)
	if org == "" {
		return "", false
	}
	if i.IsAdmin() {
		return org, true
	}
	for _, assigned := range i.Organizations {
		if strings.EqualFold(strings.TrimSpace(assigned), org) {
			return strings.TrimSpace(assigned), true
		}
	}
	return "", false
}

func (i *Identity) CanAccess(org string) bool {
	_, ok := i.ResolveOrganization(org)
	return ok
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(ContextIdentityKey).(*Identity)
	return identity, ok && identity != nil
}

func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, identity)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
