package cache

import "time"

type RedisOption func(*RedisConfig)

// RedisConfig configures the L2 cache shared between instances.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	PoolTimeout  time.Duration
	MinIdleConns int
	// Prefix namespaces every key as "<prefix>:<key>".
	Prefix string
}

func WithRedisHost(host string) RedisOption {
	return func(c *RedisConfig) { c.Host = host }
}

func WithRedisPort(port int) RedisOption {
	return func(c *RedisConfig) { c.Port = port }
}

func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) { c.Password = password }
}

func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) { c.DB = db }
}

// WithRedisPool overrides the pool settings; zero values keep the defaults.
func WithRedisPool(size, minIdle int, timeout time.Duration) RedisOption {
	return func(c *RedisConfig) {
		if size > 0 {
			c.PoolSize = size
		}
		if minIdle > 0 {
			c.MinIdleConns = minIdle
		}
		if timeout > 0 {
			c.PoolTimeout = timeout
		}
	}
}

func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) { c.Prefix = prefix }
}

type MemoryOption func(*MemoryConfig)

// MemoryConfig bounds the in-process cache. MaxSize <= 0 means unbounded.
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration
	Now             func() time.Time
}

func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) { c.MaxSize = size }
}

func WithMemoryCleanup(interval time.Duration) MemoryOption {
	return func(c *MemoryConfig) { c.CleanupInterval = interval }
}

// WithMemoryClock is for tests.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(c *MemoryConfig) { c.Now = now }
}

type LayeredOption func(*LayeredConfig)

// LayeredConfig sizes the L1 memory cache in front of Redis.
type LayeredConfig struct {
	MemoryMaxSize int
	// MemoryTTL caps how long L1 keeps a value read through from L2.
	MemoryTTL time.Duration
}

func WithLayeredMemorySize(size int) LayeredOption {
	return func(c *LayeredConfig) { c.MemoryMaxSize = size }
}

func WithLayeredMemoryTTL(ttl time.Duration) LayeredOption {
	return func(c *LayeredConfig) { c.MemoryTTL = ttl }
}
