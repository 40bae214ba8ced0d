// Package cache stores upstream payloads for a short time so repeated
// report previews do not hit the diet-tracking API again.
//
// Reads are opt-in per call: only a context marked with AllowStale may be
// answered from the cache. Paths that persist what they fetch always go
// upstream. A Cache never fails the caller: a backend error is treated as a
// miss.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tbourn/dietbot/internal/config"
)

// Cache is a namespaced byte store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

// New returns a Redis cache when REDIS_URL is configured and a Nop otherwise.
func New(cfg config.CacheConfig) (Cache, error) {
	if cfg.RedisURL == "" {
		return Nop{}, nil
	}
	return NewRedis(cfg.RedisURL, "dietbot")
}

type staleKey struct{}

// AllowStale marks ctx so payload reads made with it may be served from the
// cache.
func AllowStale(ctx context.Context) context.Context {
	return context.WithValue(ctx, staleKey{}, true)
}

// StaleAllowed reports whether ctx was marked by AllowStale.
func StaleAllowed(ctx context.Context) bool {
	ok, _ := ctx.Value(staleKey{}).(bool)
	return ok
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (Nop) Set(context.Context, string, []byte, time.Duration) {}

type memEntry struct {
	val []byte
	exp time.Time
}

// Memory is a process-local cache, used in tests and single-instance runs.
type Memory struct {
	mu  sync.Mutex
	m   map[string]memEntry
	now func() time.Time
}

// NewMemory returns an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]memEntry), now: time.Now}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && !c.now().Before(e.exp) {
		delete(c.m, key)
		return nil, false
	}
	return e.val, true
}

func (c *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memEntry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.exp = c.now().Add(ttl)
	}
	c.m[key] = e
}
