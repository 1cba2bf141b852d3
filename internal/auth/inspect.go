package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the backend's access-token claims the client displays
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenInfo describes a token for display. It is never used for authorization:
// the signature is not verified and the server remains the only authority.
type TokenInfo struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
	Expired   bool
	Opaque    bool
}

// Inspect decodes a bearer token without verifying it.
// Tokens that are not JWTs are reported as opaque.
func Inspect(token string, now time.Time) TokenInfo {
	token = strings.TrimPrefix(token, "Bearer ")
	if token == "" {
		return TokenInfo{Opaque: true}
	}

	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return TokenInfo{Opaque: true}
	}

	info := TokenInfo{
		Subject: claims.Subject,
		Role:    claims.Role,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
		info.Expired = claims.ExpiresAt.Time.Before(now)
	}
	return info
}
