package cache

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/ppiankov/factlock/internal/model"
)

// VerdictCache stores verdicts keyed by verification inputs.
// Verification is a pure function of its inputs, so a cached verdict is always
// identical to a recomputed one.
type VerdictCache struct {
	store  Cache
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// NewVerdictCache wraps a byte cache
func NewVerdictCache(store Cache, ttl time.Duration) *VerdictCache {
	return &VerdictCache{store: store, ttl: ttl}
}

// NewFromConfig builds the configured cache, or nil when caching is disabled
func NewFromConfig(cfg model.CacheConfig) *VerdictCache {
	if !cfg.Enabled {
		return nil
	}
	return NewVerdictCache(NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL), 0)
}

// Get returns the cached verdict for key
func (c *VerdictCache) Get(key string) (model.Verdict, bool) {
	data, found := c.store.Get(key)
	if !found {
		c.misses.Add(1)
		return model.Verdict{}, false
	}

	var v model.Verdict
	if err := json.Unmarshal(data, &v); err != nil {
		_ = c.store.Delete(key)
		c.misses.Add(1)
		return model.Verdict{}, false
	}

	c.hits.Add(1)
	return v, true
}

// Put stores a verdict under key
func (c *VerdictCache) Put(key string, v model.Verdict) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.store.Set(key, data, c.ttl)
}

// Stats returns hit and miss counts since creation
func (c *VerdictCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
