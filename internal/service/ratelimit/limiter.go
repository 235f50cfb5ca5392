package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*entry
	rps   rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time
	// lastSweep is when Allow last dropped idle buckets.
	lastSweep time.Time
}

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

type Option func(*Limiter)

// WithIdleTTL drops buckets not used for ttl on the next sweep.
func WithIdleTTL(ttl time.Duration) Option {
	return func(l *Limiter) { l.idle = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func New(requestsPerSecond float64, burst int, opts ...Option) *Limiter {
	l := &Limiter{
		m:     make(map[string]*entry),
		rps:   rate.Limit(requestsPerSecond),
		burst: burst,
		idle:  10 * time.Minute,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

// Allow returns true if one token can be consumed for key. Idle buckets are swept
// at most once per idle TTL.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	e, ok := l.m[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.rps, l.burst)}
		l.m[key] = e
	}
	e.seen = now
	l.mu.Unlock()
	return e.lim.AllowN(now, 1)
}

// Sweep removes idle buckets and returns how many were dropped.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweep(l.now())
}

func (l *Limiter) sweep(now time.Time) int {
	l.lastSweep = now
	cutoff := now.Add(-l.idle)
	n := 0
	for k, e := range l.m {
		if e.seen.Before(cutoff) {
			delete(l.m, k)
			n++
		}
	}
	return n
}
