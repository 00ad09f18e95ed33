package token

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const revokedKeyPrefix = "sessionhub:revoked:"

// RedisRevokedTokenCache shares the revocation set across hub instances.
// Each revoked JTI is a key expiring at the token's own exp, so Redis does
// the cleanup and Cleanup has nothing left to do.
type RedisRevokedTokenCache struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

type RedisRevokedOption func(*RedisRevokedTokenCache)

// WithRevokedKeyPrefix overrides the key prefix, letting tests partition
// their entries.
func WithRevokedKeyPrefix(prefix string) RedisRevokedOption {
	return func(c *RedisRevokedTokenCache) {
		c.prefix = prefix
	}
}

func WithRevokedCacheLogger(log zerolog.Logger) RedisRevokedOption {
	return func(c *RedisRevokedTokenCache) {
		c.log = log
	}
}

func NewRedisRevokedTokenCache(client *redis.Client, options ...RedisRevokedOption) *RedisRevokedTokenCache {
	cache := &RedisRevokedTokenCache{
		client: client,
		prefix: revokedKeyPrefix,
		log:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(cache)
	}
	return cache
}

var _ RevokedTokenCache = (*RedisRevokedTokenCache)(nil)

func (c *RedisRevokedTokenCache) Add(jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 {
		// Already expired; validation rejects it without our help.
		return nil
	}
	return c.client.Set(context.Background(), c.prefix+jti, "1", ttl).Err()
}

func (c *RedisRevokedTokenCache) IsRevoked(jti string) bool {
	n, err := c.client.Exists(context.Background(), c.prefix+jti).Result()
	if err != nil {
		c.log.Warn().Err(err).Msg("revocation lookup failed")
		return false
	}
	return n > 0
}

// Cleanup is a no-op: entries carry a TTL and Redis expires them itself.
func (c *RedisRevokedTokenCache) Cleanup() {}
