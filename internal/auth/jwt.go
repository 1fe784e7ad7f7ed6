package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mindwell-app/mindwell-api/internal/user"
)

// JWTService is the HS256 alternative to PasetoService, for deployments
// that need tokens inspectable by off-the-shelf JWT tooling.
type JWTService struct {
	secret []byte
}

type jwtClaims struct {
	Email    string `json:"email"`
	UserType string `json:"user_type"`
	IsGuest  bool   `json:"is_guest"`
	jwt.RegisteredClaims
}

func NewJWTService(secret []byte) (*JWTService, error) {
	if len(secret) != 32 {
		return nil, fmt.Errorf("signing key must be exactly 32 bytes, got %d", len(secret))
	}
	return &JWTService{secret: secret}, nil
}

// CreateToken generates a signed HS256 token with the given claims and duration
func (s *JWTService) CreateToken(claims TokenClaims, duration time.Duration) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		Email:    claims.Email,
		UserType: string(claims.UserType),
		IsGuest:  claims.IsGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken validates a signed token and returns the claims
func (s *JWTService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	var issuedAt, expiresAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &TokenClaims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		UserType:  user.Type(claims.UserType),
		IsGuest:   claims.IsGuest,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
