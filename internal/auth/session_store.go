package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mindwell-app/mindwell-api/internal/user"
)

// Session is the server-tracked record proving a token is currently
// honored. One session per user id; a second login overwrites the first.
type Session struct {
	UserID   string    `json:"userId"`
	Email    string    `json:"email"`
	UserType user.Type `json:"userType"`
	IsGuest  bool      `json:"isGuest"`
}

// RedisSessionStore persists sessions in Redis keyed session:<userId>,
// with expiry handled by the key TTL.
type RedisSessionStore struct {
	client redis.UniversalClient
}

func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(userID string) string {
	return fmt.Sprintf("session:%s", userID)
}

// Save stores the session, overwriting any prior one at the same key.
func (s *RedisSessionStore) Save(ctx context.Context, sess Session, ttl time.Duration) error {
	if sess.UserID == "" {
		return errors.New("session user id cannot be empty")
	}
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sess.UserID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// Get retrieves the live session for a user id, or ErrSessionNotFound if
// it has expired, been logged out, or never existed.
func (s *RedisSessionStore) Get(ctx context.Context, userID string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &sess, nil
}

// Delete removes a session. Deleting a non-existent session is not an error.
func (s *RedisSessionStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
