package git

import (
	"context"
	"sync"
	"time"
)

// CachedService wraps a Source implementation with a TTL-based cache for
// expensive read operations.
//
// Diffs and show dumps are keyed by commit ids, so their content never
// goes stale; the TTL only bounds memory. Repository info can change when
// the user switches branches, so Refresh drops it.
//
// The cache is bounded by maxCacheEntries to prevent unbounded memory
// growth across long-running watch sessions.
type CachedService struct {
	inner Source
	ttl   time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// maxCacheEntries caps the number of entries in the cache. When exceeded,
// expired entries are evicted first and the whole cache is flushed if that
// is not enough.
const maxCacheEntries = 4096

const infoKey = "info"

type cacheEntry struct {
	val    interface{}
	err    error
	expiry time.Time
}

// Compile-time check.
var _ Source = (*CachedService)(nil)

// NewCachedService wraps an existing Source with a TTL cache.
func NewCachedService(inner Source, ttl time.Duration) *CachedService {
	return &CachedService{
		inner: inner,
		ttl:   ttl,
		cache: make(map[string]cacheEntry, 16),
	}
}

// Invalidate clears all cached entries.
func (c *CachedService) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string]cacheEntry, 16)
	c.mu.Unlock()
}

// Refresh drops the cached repository info. Called when the watcher sees
// ref or HEAD changes.
func (c *CachedService) Refresh() {
	c.mu.Lock()
	delete(c.cache, infoKey)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *CachedService) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func (c *CachedService) get(key string) (val interface{}, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.cache[key]
	if !found || time.Now().After(e.expiry) {
		return nil, false, nil
	}
	return e.val, true, e.err
}

func (c *CachedService) set(key string, val interface{}, err error) {
	if err != nil {
		// Failures are often caused by a cancelled context; never pin them.
		return
	}
	c.mu.Lock()
	if len(c.cache) >= maxCacheEntries {
		now := time.Now()
		for k, e := range c.cache {
			if now.After(e.expiry) {
				delete(c.cache, k)
			}
		}
		if len(c.cache) >= maxCacheEntries {
			c.cache = make(map[string]cacheEntry, 16)
		}
	}
	c.cache[key] = cacheEntry{val: val, err: err, expiry: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Info returns the repository info (cached).
func (c *CachedService) Info(ctx context.Context) (RepoInfo, error) {
	if v, ok, err := c.get(infoKey); ok {
		return v.(RepoInfo), err
	}
	v, err := c.inner.Info(ctx)
	c.set(infoKey, v, err)
	return v, err
}

// Log delegates to the inner service (not cached: HEAD moves).
func (c *CachedService) Log(ctx context.Context, limit int) ([]LogEntry, error) {
	return c.inner.Log(ctx, limit)
}

// Diff delegates to the inner service (cached per commit pair).
func (c *CachedService) Diff(ctx context.Context, parent, sha string) (*Diff, error) {
	key := "diff:" + parent + ".." + sha
	if v, ok, err := c.get(key); ok {
		return v.(*Diff), err
	}
	v, err := c.inner.Diff(ctx, parent, sha)
	c.set(key, v, err)
	return v, err
}

// ShowRaw delegates to the inner service (cached per commit).
func (c *CachedService) ShowRaw(ctx context.Context, sha string) (string, error) {
	key := "show:" + sha
	if v, ok, err := c.get(key); ok {
		return v.(string), err
	}
	v, err := c.inner.ShowRaw(ctx, sha)
	c.set(key, v, err)
	return v, err
}
