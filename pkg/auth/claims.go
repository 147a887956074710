// Package auth provides JWT bearer authentication for workbench-engine
// and resolves the calling principal for downstream services.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/labfoundry/workbench-engine/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// PrincipalKey is the context key for the resolved principal.
const PrincipalKey contextKey = "principal"

// Claims is the JWT claims structure issued by the identity service.
// The subject is the user's uid.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Principal converts the claims into the caller principal.
func (c *Claims) Principal() models.Principal {
	return models.Principal{
		UID:      c.Subject,
		Username: c.Username,
		Role:     c.Role,
		Status:   c.Status,
	}
}

// GetPrincipal retrieves the authenticated principal from context.
func GetPrincipal(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(models.Principal)
	return p, ok
}

// SetPrincipal stores the authenticated principal in context.
func SetPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}
