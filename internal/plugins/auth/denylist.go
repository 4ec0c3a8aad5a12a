package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// denylistKeyPrefix is the Redis key prefix for revoked refresh tokens.
const denylistKeyPrefix = "auth:revoked:"

// Denylist records revoked refresh token IDs until they would have expired.
type Denylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// redisDenylist stores one key per revoked jti with a TTL matching the
// token's remaining lifetime, so the set never outgrows live tokens.
type redisDenylist struct {
	client redis.Cmdable
}

// NewRedisDenylist creates a Denylist backed by Redis.
func NewRedisDenylist(client redis.Cmdable) Denylist {
	return &redisDenylist{client: client}
}

// Revoke implements Denylist. Tokens with no lifetime left need no entry.
func (d *redisDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, denylistKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}
	return nil
}

// IsRevoked implements Denylist.
func (d *redisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("checking refresh token: %w", err)
	}
	return n > 0, nil
}
