package cache

import (
	"context"
	"time"
)

// LayeredCache implements two-level cache (L1: Memory, L2: Redis).
type LayeredCache struct {
	memCache *MemoryCache
	remote   Service
	memTTL   time.Duration
}

// NewLayeredCache creates a layered cache in front of a remote cache.
func NewLayeredCache(remote Service, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
		MemoryTTL:     time.Minute,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredCache{
		memCache: NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		remote:   remote,
		memTTL:   cfg.MemoryTTL,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	// Write-through: remote first, then memory
	if err := lc.remote.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.memCache.Set(ctx, key, value, lc.l1TTL(expiration))
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.memCache.Get(ctx, key, dest); err == nil {
		return nil
	}

	if err := lc.remote.Get(ctx, key, dest); err != nil {
		return err
	}

	_ = lc.memCache.Set(ctx, key, dest, lc.memTTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.memCache.Delete(ctx, keys...)
	return lc.remote.Delete(ctx, keys...)
}

func (lc *LayeredCache) DeleteByPattern(ctx context.Context, pattern string) error {
	_ = lc.memCache.DeleteByPattern(ctx, pattern)
	return lc.remote.DeleteByPattern(ctx, pattern)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	if ok, _ := lc.memCache.Exists(ctx, keys...); ok {
		return true, nil
	}
	return lc.remote.Exists(ctx, keys...)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.memCache.Close()
	return lc.remote.Close()
}

func (lc *LayeredCache) l1TTL(expiration time.Duration) time.Duration {
	if expiration > 0 && expiration < lc.memTTL {
		return expiration
	}
	return lc.memTTL
}
