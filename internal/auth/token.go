package auth

import (
	"fmt"
	"time"

	"github.com/mindwell-app/mindwell-api/internal/user"
)

// TokenClaims is the closed payload embedded in a signed session token.
// A token is only authoritative when a live session exists for UserID;
// revocation works by deleting the session even though the token stays
// cryptographically valid until ExpiresAt.
type TokenClaims struct {
	UserID    string    `json:"user_id"` // uuid, or guest_<uuid> for guests
	Email     string    `json:"email"`
	UserType  user.Type `json:"user_type"`
	IsGuest   bool      `json:"is_guest"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// NewTokenService selects a token implementation by name. Both providers
// take the same 32-byte symmetric key.
func NewTokenService(provider string, key []byte) (TokenService, error) {
	switch provider {
	case "paseto":
		return NewPasetoService(key)
	case "jwt":
		return NewJWTService(key)
	default:
		return nil, fmt.Errorf("unknown token provider %q", provider)
	}
}
