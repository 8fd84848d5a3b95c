package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/image-update-checker/pkg/types"
)

// Entry represents a cached tag list
type Entry struct {
	Tags      []string
	Timestamp time.Time
	TTL       time.Duration
}

// IsExpired checks if the cache entry has expired
func (e *Entry) IsExpired() bool {
	return time.Since(e.Timestamp) > e.TTL
}

// Stats holds statistics about cache usage
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Evicted int64 `json:"evicted"`
	Size    int64 `json:"size"`
}

// HitRate returns the cache hit rate as a percentage
func (s *Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total) * 100.0
}

// TagCache provides in-memory caching for registry tag lists
type TagCache struct {
	cache       sync.Map
	defaultTTL  time.Duration
	stats       Stats
	cleanupTick *time.Ticker
	stopCleanup chan struct{}
}

// Config holds cache configuration
type Config struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig returns sensible default cache configuration
func DefaultConfig() Config {
	return Config{
		DefaultTTL:      15 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewTagCache creates a new tag cache with the given configuration
func NewTagCache(config Config) *TagCache {
	cache := &TagCache{
		defaultTTL:  config.DefaultTTL,
		stopCleanup: make(chan struct{}),
	}

	// Start background cleanup goroutine
	if config.CleanupInterval > 0 {
		cache.cleanupTick = time.NewTicker(config.CleanupInterval)
		go cache.cleanupLoop()
	}

	return cache
}

// Get retrieves the cached tag list for an image repository
func (c *TagCache) Get(image types.ImageReference) ([]string, bool) {
	key := makeKey(image)

	if value, ok := c.cache.Load(key); ok {
		entry := value.(*Entry)

		if !entry.IsExpired() {
			atomic.AddInt64(&c.stats.Hits, 1)
			return entry.Tags, true
		}

		// Entry expired, remove it
		c.cache.Delete(key)
		atomic.AddInt64(&c.stats.Evicted, 1)
		atomic.AddInt64(&c.stats.Size, -1)
	}

	atomic.AddInt64(&c.stats.Misses, 1)
	return nil, false
}

// Set caches the tag list for an image repository
func (c *TagCache) Set(image types.ImageReference, tags []string) {
	c.SetWithTTL(image, tags, c.defaultTTL)
}

// SetWithTTL caches the tag list for an image repository with custom TTL
func (c *TagCache) SetWithTTL(image types.ImageReference, tags []string, ttl time.Duration) {
	key := makeKey(image)

	entry := &Entry{
		Tags:      make([]string, len(tags)), // Copy to avoid external modifications
		Timestamp: time.Now(),
		TTL:       ttl,
	}
	copy(entry.Tags, tags)

	_, existed := c.cache.LoadOrStore(key, entry)
	if !existed {
		atomic.AddInt64(&c.stats.Size, 1)
	} else {
		c.cache.Store(key, entry)
	}
}

// Clear removes all entries from the cache
func (c *TagCache) Clear() {
	c.cache.Range(func(key, value interface{}) bool {
		c.cache.Delete(key)
		return true
	})

	atomic.StoreInt64(&c.stats.Size, 0)
}

// Stats returns current cache statistics
func (c *TagCache) Stats() Stats {
	return Stats{
		Hits:    atomic.LoadInt64(&c.stats.Hits),
		Misses:  atomic.LoadInt64(&c.stats.Misses),
		Evicted: atomic.LoadInt64(&c.stats.Evicted),
		Size:    atomic.LoadInt64(&c.stats.Size),
	}
}

// Close stops the cache cleanup goroutine
func (c *TagCache) Close() {
	if c.cleanupTick != nil {
		c.cleanupTick.Stop()
		close(c.stopCleanup)
	}
}

// makeKey creates a cache key for an image repository. The tag is left out
// on purpose: the published tag list is a property of the repository.
func makeKey(image types.ImageReference) string {
	return image.Registry + "/" + image.Repository
}

// cleanupLoop runs in the background to remove expired entries
func (c *TagCache) cleanupLoop() {
	for {
		select {
		case <-c.cleanupTick.C:
			c.cleanupExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

// cleanupExpired removes all expired entries from the cache
func (c *TagCache) cleanupExpired() {
	var keysToDelete []interface{}

	c.cache.Range(func(key, value interface{}) bool {
		entry := value.(*Entry)
		if entry.IsExpired() {
			keysToDelete = append(keysToDelete, key)
		}
		return true
	})

	for _, key := range keysToDelete {
		c.cache.Delete(key)
		atomic.AddInt64(&c.stats.Evicted, 1)
		atomic.AddInt64(&c.stats.Size, -1)
	}
}

// CachedTagLister wraps a tag lister with caching
type CachedTagLister struct {
	lister types.TagLister
	cache  *TagCache
}

// NewCachedTagLister creates a new cached tag lister
func NewCachedTagLister(lister types.TagLister, cache *TagCache) *CachedTagLister {
	return &CachedTagLister{
		lister: lister,
		cache:  cache,
	}
}

// Name returns the name of the underlying lister
func (c *CachedTagLister) Name() string {
	return c.lister.Name()
}

// ListTags lists tags with caching
func (c *CachedTagLister) ListTags(ctx context.Context, image types.ImageReference) ([]string, error) {
	if tags, found := c.cache.Get(image); found {
		return tags, nil
	}

	tags, err := c.lister.ListTags(ctx, image)
	if err != nil {
		return nil, err
	}

	c.cache.Set(image, tags)

	return tags, nil
}
