package backend

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what Outreach can read from a bearer token without the
// backend's signing key.
type TokenClaims struct {
	Subject   string
	Username  string
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (c *TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// ParseTokenClaims decodes a JWT payload WITHOUT verifying the signature.
// The result is for display and id fallback only and must never be used to
// make an authorization decision. Opaque (non-JWT) tokens return an error.
func ParseTokenClaims(token string) (*TokenClaims, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("parsing token claims: %w", err)
	}

	out := &TokenClaims{
		Subject:  claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
