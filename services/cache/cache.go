package cache

import (
	"time"
)

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// Blocker marks storefront hosts as blocked after a rate limit response so
// later page fetches are skipped until the block expires.
type Blocker struct {
	cache     CacheService
	blockTime time.Duration
}

// NewBlocker creates a blocker. A nil cache disables blocking.
func NewBlocker(cache CacheService, blockTime time.Duration) *Blocker {
	return &Blocker{cache: cache, blockTime: blockTime}
}

// IsBlocked reports whether key is currently blocked. Cache errors count as
// not blocked.
func (b *Blocker) IsBlocked(key string) bool {
	if b == nil || b.cache == nil || key == "" {
		return false
	}
	_, err := b.cache.Get(blockKey(key))
	return err == nil
}

// Block marks key as blocked for the configured block time
func (b *Blocker) Block(key string) error {
	if b == nil || b.cache == nil || key == "" || b.blockTime <= 0 {
		return nil
	}
	return b.cache.Set(blockKey(key), []byte(time.Now().UTC().Format(time.RFC3339)), b.blockTime)
}

// BlockTime returns how long a block lasts
func (b *Blocker) BlockTime() time.Duration {
	if b == nil {
		return 0
	}
	return b.blockTime
}

func blockKey(key string) string {
	return "rankworker:blocked:" + key
}
