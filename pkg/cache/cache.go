package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations. Values are stored JSON encoded.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Close() error
}

// GetTyped reads key into a fresh T.
func GetTyped[T any](ctx context.Context, c Service, key string) (T, error) {
	var out T
	if err := c.Get(ctx, key, &out); err != nil {
		return out, err
	}
	return out, nil
}
