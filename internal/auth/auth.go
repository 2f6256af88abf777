package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/school-records/internal"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a session token.
type Claims struct {
	Username      string   `json:"usuario"`
	Role          string   `json:"rol"`
	Organizations []string `json:"escuelas"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() *internal.Identity {
	orgs := make([]string, len(c.Organizations))
	copy(orgs, c.Organizations)
	return &internal.Identity{
		Username:      c.Username,
		Role:          c.Role,
		Organizations: orgs,
	}
}

// Session is the outcome of a successful login.
type Session struct {
	Identity  *internal.Identity
	Token     string
	ExpiresAt time.Time
}

type TokenGeneratorAPI interface {
	Generate(identity *internal.Identity) (token string, claims *Claims, err error)
	Validate(tokenString string) (*Claims, error)
}

// Revoker remembers logged out token ids until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
