package token_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hubcentral/go-session-hub/token"
)

func setupRedisCache(t *testing.T) (*miniredis.Miniredis, *token.RedisRevokedTokenCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, token.NewRedisRevokedTokenCache(client)
}

func TestRedisRevokedTokenCacheRoundTrip(t *testing.T) {
	mr, cache := setupRedisCache(t)

	require.False(t, cache.IsRevoked("jti-1"))
	require.NoError(t, cache.Add("jti-1", time.Now().Add(time.Hour)))
	require.True(t, cache.IsRevoked("jti-1"))

	mr.FastForward(2 * time.Hour)
	require.False(t, cache.IsRevoked("jti-1"))
}

func TestRedisRevokedTokenCacheSkipsExpiredTokens(t *testing.T) {
	_, cache := setupRedisCache(t)

	require.NoError(t, cache.Add("jti-old", time.Now().Add(-time.Minute)))
	require.False(t, cache.IsRevoked("jti-old"))
}

func TestRedisRevokedTokenCacheSharedAcrossInstances(t *testing.T) {
	mr, cache := setupRedisCache(t)

	other := token.NewRedisRevokedTokenCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, cache.Add("jti-shared", time.Now().Add(time.Hour)))
	require.True(t, other.IsRevoked("jti-shared"))
}
