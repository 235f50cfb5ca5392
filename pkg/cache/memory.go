package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const defaultMemoryTTL = 7 * 24 * time.Hour

// MemoryItem stores an encoded value with expiration.
type MemoryItem struct {
	Value    []byte
	ExpireAt time.Time
}

// IsExpired checks if item has expired.
func (m *MemoryItem) IsExpired(now time.Time) bool {
	return now.After(m.ExpireAt)
}

// MemoryCache implements Service using in-memory storage with LRU eviction.
type MemoryCache struct {
	data          map[string]*MemoryItem
	access        map[string]time.Time
	mutex         sync.Mutex
	maxSize       int
	now           func() time.Time
	cleanupTicker *time.Ticker
	done          chan struct{}
	closeOnce     sync.Once
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
		Now:             time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		data:          make(map[string]*MemoryItem),
		access:        make(map[string]time.Time),
		maxSize:       cfg.MaxSize,
		now:           cfg.Now,
		cleanupTicker: time.NewTicker(cfg.CleanupInterval),
		done:          make(chan struct{}),
	}

	go mc.cleanupExpired()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if _, exists := mc.data[key]; !exists && mc.maxSize > 0 && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}

	now := mc.now()
	if expiration <= 0 {
		expiration = defaultMemoryTTL
	}
	mc.data[key] = &MemoryItem{Value: data, ExpireAt: now.Add(expiration)}
	mc.access[key] = now
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mutex.Lock()
	now := mc.now()
	item, exists := mc.data[key]
	if !exists || item.IsExpired(now) {
		if exists {
			delete(mc.data, key)
			delete(mc.access, key)
		}
		mc.mutex.Unlock()
		return ErrCacheMiss
	}
	mc.access[key] = now
	data := item.Value
	mc.mutex.Unlock()

	return decode(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
		delete(mc.access, key)
	}
	return nil
}

func (mc *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for key := range mc.data {
		if matchPattern(pattern, key) {
			delete(mc.data, key)
			delete(mc.access, key)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	for _, key := range keys {
		if item, ok := mc.data[key]; ok && !item.IsExpired(now) {
			return true, nil
		}
	}
	return false, nil
}

// Len reports the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	return len(mc.data)
}

func (mc *MemoryCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	for key, accessTime := range mc.access {
		if oldestKey == "" || accessTime.Before(oldestTime) {
			oldestTime = accessTime
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(mc.data, oldestKey)
		delete(mc.access, oldestKey)
	}
}

func (mc *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.cleanupTicker.C:
			mc.mutex.Lock()
			now := mc.now()
			for key, item := range mc.data {
				if item.IsExpired(now) {
					delete(mc.data, key)
					delete(mc.access, key)
				}
			}
			mc.mutex.Unlock()
		}
	}
}

// Close stops the cleanup loop.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() {
		mc.cleanupTicker.Stop()
		close(mc.done)
	})
	return nil
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(value)
	}
}

func decode(data []byte, dest interface{}) error {
	if strPtr, ok := dest.(*string); ok {
		*strPtr = string(data)
		return nil
	}
	return json.Unmarshal(data, dest)
}
