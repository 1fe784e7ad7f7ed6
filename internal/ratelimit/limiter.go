package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Defaults: 10 requests per IP per 15-minute window, 2-minute cooldown
// between emails to the same address.
const (
	defaultIPLimit       = 10
	defaultIPWindow      = 15 * time.Minute
	defaultEmailCooldown = 2 * time.Minute
)

// Limiter implements fixed-window request counting and per-email
// cooldowns on top of Redis key expiry.
type Limiter struct {
	client        redis.UniversalClient
	ipLimit       int
	ipWindow      time.Duration
	emailCooldown time.Duration
}

func NewLimiter(client redis.UniversalClient) *Limiter {
	return &Limiter{
		client:        client,
		ipLimit:       defaultIPLimit,
		ipWindow:      defaultIPWindow,
		emailCooldown: defaultEmailCooldown,
	}
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, ip)
}

func emailCooldownKey(email string) string {
	// Addresses are hashed so they never appear as raw Redis keys
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("cooldown:email:%s", hex.EncodeToString(sum[:]))
}

// CheckIPRateLimit reports whether the IP has exhausted the default window.
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return l.CheckIPRateLimitWithPurpose(ctx, ip, "default")
}

// CheckIPRateLimitWithPurpose reports whether the IP has exhausted the
// window for a specific purpose (login, signup, ...). Purposes count
// independently so a login burst cannot lock out password resets.
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, ipKey(ip, purpose)).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}
	return count >= l.ipLimit, nil
}

// RecordIPRequest counts a request against the default window.
func (l *Limiter) RecordIPRequest(ctx context.Context, ip string) error {
	return l.RecordIPRequestWithPurpose(ctx, ip, "default")
}

// RecordIPRequestWithPurpose counts a request, starting the window on the
// first hit.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := ipKey(ip, purpose)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// First request in the window owns the expiry
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.ipWindow).Err(); err != nil {
			return fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return nil
}

// CheckEmailCooldown reports whether an email was targeted too recently.
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	exists, err := l.client.Exists(ctx, emailCooldownKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}
	return exists > 0, nil
}

// SetEmailCooldown starts the cooldown for an email address.
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	if err := l.client.Set(ctx, emailCooldownKey(email), "1", l.emailCooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}
	return nil
}
