package testhelpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/labfoundry/workbench-engine/pkg/auth"
	"github.com/labfoundry/workbench-engine/pkg/models"
)

// SignTestToken mints an HMAC-signed bearer token for the given
// principal, valid for an hour.
func SignTestToken(t *testing.T, signingKey string, p models.Principal) string {
	t.Helper()

	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Username: p.Username,
		Role:     p.Role,
		Status:   p.Status,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(signingKey))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}
