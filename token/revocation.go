package token

import (
	"sync"
	"time"
)

// RevokedTokenCache tracks access-token JTIs that were invalidated before
// their exp. Entries only need to live as long as the token would have.
type RevokedTokenCache interface {
	Add(jti string, exp time.Time) error
	IsRevoked(jti string) bool
	Cleanup()
}

// InMemoryRevokedTokenCache keeps the revocation set in process memory,
// which is enough for a single-instance hub. Multi-instance deployments use
// the Redis cache so every instance rejects the same tokens.
type InMemoryRevokedTokenCache struct {
	lock    sync.RWMutex
	revoked map[string]time.Time
}

var _ RevokedTokenCache = (*InMemoryRevokedTokenCache)(nil)

func NewInMemoryRevokedTokenCache() *InMemoryRevokedTokenCache {
	return &InMemoryRevokedTokenCache{
		revoked: make(map[string]time.Time),
	}
}

func (c *InMemoryRevokedTokenCache) Add(jti string, exp time.Time) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.revoked[jti] = exp
	return nil
}

func (c *InMemoryRevokedTokenCache) IsRevoked(jti string) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	_, revoked := c.revoked[jti]
	return revoked
}

// Cleanup drops entries whose token has expired on its own.
func (c *InMemoryRevokedTokenCache) Cleanup() {
	c.lock.Lock()
	defer c.lock.Unlock()

	now := time.Now()
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
		}
	}
}
