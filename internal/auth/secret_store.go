package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSecretStore holds the ephemeral single-purpose secrets: email
// verification codes keyed by user id, and password reset tokens keyed by
// the (hashed) token itself so redemption is a single lookup instead of a
// scan over users.
type RedisSecretStore struct {
	client redis.UniversalClient
}

func NewRedisSecretStore(client redis.UniversalClient) *RedisSecretStore {
	return &RedisSecretStore{client: client}
}

func verificationCodeKey(userID uuid.UUID) string {
	return fmt.Sprintf("verification:email_verification:%s", userID)
}

func resetTokenKey(token string) string {
	// Only the hash of the token ever touches Redis
	return fmt.Sprintf("verification:password_reset:%s", hashToken(token))
}

// hashToken returns the hex-encoded SHA-256 of a secret token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SetCode stores a verification code, superseding any prior code for the user.
func (s *RedisSecretStore) SetCode(ctx context.Context, userID uuid.UUID, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, verificationCodeKey(userID), code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	return nil
}

// GetCode retrieves the live verification code for a user, or ErrCodeNotFound.
func (s *RedisSecretStore) GetCode(ctx context.Context, userID uuid.UUID) (string, error) {
	code, err := s.client.Get(ctx, verificationCodeKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCodeNotFound
		}
		return "", fmt.Errorf("failed to get verification code: %w", err)
	}
	return code, nil
}

// DeleteCode removes a consumed verification code.
func (s *RedisSecretStore) DeleteCode(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, verificationCodeKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}
	return nil
}

// Store saves a reset token under its own hash so Lookup is O(1).
func (s *RedisSecretStore) Store(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetTokenKey(token), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to store password reset token: %w", err)
	}
	return nil
}

// Lookup resolves a reset token to the user it was issued for, or
// ErrResetTokenNotFound if it is absent or expired.
func (s *RedisSecretStore) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	userIDStr, err := s.client.Get(ctx, resetTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrResetTokenNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to get password reset token: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse user ID: %w", err)
	}

	return userID, nil
}

// Delete removes a consumed reset token.
func (s *RedisSecretStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, resetTokenKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete password reset token: %w", err)
	}
	return nil
}
