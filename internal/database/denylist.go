package database

import (
	"context"
	"time"
)

const denylistPrefix = "nasmini:denylist:"

// BlacklistToken records a logged-out session token until it would have
// expired anyway. No-op when Redis is not configured; session tokens are
// stateless and logout then only removes the client-held cookie.
func BlacklistToken(token string, ttl time.Duration) error {
	if Redis == nil || ttl <= 0 {
		return nil
	}
	ctx := context.Background()
	return Redis.Set(ctx, denylistPrefix+token, "1", ttl).Err()
}

// IsTokenBlacklisted reports whether a token was revoked by logout.
func IsTokenBlacklisted(token string) bool {
	if Redis == nil {
		return false
	}
	ctx := context.Background()
	n, err := Redis.Exists(ctx, denylistPrefix+token).Result()
	return err == nil && n > 0
}
