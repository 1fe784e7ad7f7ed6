package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mindwell-app/mindwell-api/internal/user"
)

// UserRepository is the durable store of user records. The Postgres
// implementation lives in the user package; tests substitute an in-memory one.
type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string, userType user.Type) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	MarkEmailVerified(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// SessionStore tracks the single active session per user, keyed by user id
// (or guest id). Save overwrites any prior session at the same key.
type SessionStore interface {
	Save(ctx context.Context, sess Session, ttl time.Duration) error
	Get(ctx context.Context, userID string) (*Session, error)
	Delete(ctx context.Context, userID string) error
}

// VerificationCodeStore holds the short-lived email verification code for a
// user. At most one live code per user; setting a new one supersedes it.
type VerificationCodeStore interface {
	SetCode(ctx context.Context, userID uuid.UUID, code string, ttl time.Duration) error
	GetCode(ctx context.Context, userID uuid.UUID) (string, error)
	DeleteCode(ctx context.Context, userID uuid.UUID) error
}

// ResetTokenStore maps reset tokens back to user ids so redeeming a token
// is a single key lookup.
type ResetTokenStore interface {
	Store(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (uuid.UUID, error)
	Delete(ctx context.Context, token string) error
}

// Notifier delivers transactional mail. Send failures are observable via
// the returned error; retry policy is the implementation's concern.
type Notifier interface {
	SendVerificationCode(ctx context.Context, toEmail, name, code string) error
	SendPasswordReset(ctx context.Context, toEmail, name, token string) error
}

// TokenService defines the interface for token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(claims TokenClaims, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}
