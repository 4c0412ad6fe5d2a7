package policyfile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/persistio/persist/policy"
)

type cacheEntry struct {
	pol       policy.Options
	expiresAt time.Time
	found     bool // false marks a negative entry for a missing policy
}

// Cache is a thread-safe policy cache with TTL support.
type Cache struct {
	mu      sync.RWMutex
	entries map[policy.Key]cacheEntry
	nowFn   func() time.Time
}

// NewCache creates a new, empty Cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[policy.Key]cacheEntry),
	}
}

// Get retrieves a policy from the cache. found reports whether a live
// entry exists at all; missing reports whether that entry is a negative
// one recording that the key has no policy.
func (c *Cache) Get(key policy.Key) (pol policy.Options, found bool, missing bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return policy.Options{}, false, false
	}

	if c.now().After(entry.expiresAt) {
		return policy.Options{}, false, false
	}

	return entry.pol, true, !entry.found
}

// Set adds or updates a policy in the cache.
func (c *Cache) Set(key policy.Key, pol policy.Options, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		pol:       pol,
		expiresAt: c.now().Add(ttl),
		found:     true,
	}
}

// SetMissing records a negative cache entry.
func (c *Cache) SetMissing(key policy.Key, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		expiresAt: c.now().Add(ttl),
		found:     false,
	}
}

// Invalidate removes an entry from the cache.
func (c *Cache) Invalidate(key policy.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache) now() time.Time {
	if c.nowFn != nil {
		return c.nowFn()
	}
	return time.Now()
}

// DefaultCacheTTL bounds how long CachingProvider serves a policy
// without consulting its inner provider again.
const DefaultCacheTTL = 30 * time.Second

// CachingProvider wraps a Provider with a TTL cache. Lookups that end in
// ErrPolicyNotFound are cached negatively so a missing policy does not
// hit the inner provider on every call.
type CachingProvider struct {
	Inner Provider

	// TTL for cached entries. Zero means DefaultCacheTTL.
	TTL time.Duration

	once  sync.Once
	cache *Cache
}

func (p *CachingProvider) Options(ctx context.Context, key policy.Key) (policy.Options, error) {
	p.once.Do(func() { p.cache = NewCache() })

	if pol, found, missing := p.cache.Get(key); found {
		if missing {
			return policy.Options{}, ErrPolicyNotFound
		}
		return pol, nil
	}

	pol, err := p.Inner.Options(ctx, key)
	if err != nil {
		if errors.Is(err, ErrPolicyNotFound) {
			p.cache.SetMissing(key, p.ttl())
		}
		return policy.Options{}, err
	}

	p.cache.Set(key, pol, p.ttl())
	return pol, nil
}

// Invalidate drops the cached entry for key, forcing the next lookup
// through to the inner provider.
func (p *CachingProvider) Invalidate(key policy.Key) {
	p.once.Do(func() { p.cache = NewCache() })
	p.cache.Invalidate(key)
}

func (p *CachingProvider) ttl() time.Duration {
	if p.TTL > 0 {
		return p.TTL
	}
	return DefaultCacheTTL
}
