package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mapCache is an in-memory CacheService for tests
type mapCache struct {
	data map[string][]byte
	ttl  map[string]time.Duration
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (m *mapCache) Get(key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func (m *mapCache) Set(key string, value []byte, expiration time.Duration) error {
	m.data[key] = value
	m.ttl[key] = expiration
	return nil
}

func (m *mapCache) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func TestBlocker(t *testing.T) {
	mc := newMapCache()
	b := NewBlocker(mc, 10*time.Minute)

	assert.False(t, b.IsBlocked("store_playstation_com"))
	assert.NoError(t, b.Block("store_playstation_com"))
	assert.True(t, b.IsBlocked("store_playstation_com"))
	assert.False(t, b.IsBlocked("other_host"))
	assert.Equal(t, 10*time.Minute, mc.ttl["rankworker:blocked:store_playstation_com"])
}

func TestBlockerDisabled(t *testing.T) {
	var nilBlocker *Blocker
	assert.False(t, nilBlocker.IsBlocked("x"))
	assert.NoError(t, nilBlocker.Block("x"))

	b := NewBlocker(nil, time.Minute)
	assert.NoError(t, b.Block("x"))
	assert.False(t, b.IsBlocked("x"))

	zero := NewBlocker(newMapCache(), 0)
	assert.NoError(t, zero.Block("x"))
	assert.False(t, zero.IsBlocked("x"))
}
