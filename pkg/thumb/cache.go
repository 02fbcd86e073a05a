package thumb

import (
	"container/list"
	"context"
	"image"
	"sync"

	"github.com/photogridlab/photogrid/pkg/observability"
)

// Default cache bounds used when NewCache is given non-positive limits.
const (
	DefaultMaxEntries = 512
	DefaultMaxBytes   = 256 << 20 // 256 MiB
)

// CacheKey identifies a decoded thumbnail: which image, at which target
// size. Lookups match by key, never by request order.
type CacheKey struct {
	ImageID string
	Width   int
	Height  int
}

// Cost estimates the resident byte cost of a decoded bitmap: 4 bytes per
// pixel of its bounds. An estimate is enough; the budget exists to stop
// unbounded growth, not to account exactly.
func Cost(img image.Image) int64 {
	b := img.Bounds()
	return int64(b.Dx()) * int64(b.Dy()) * 4
}

// Cache is a bounded in-memory store of decoded thumbnails with two
// ceilings: an entry count and a total byte cost. Exceeding either evicts
// the least-recently-used entries until both hold again.
//
// The cache is exclusively owned by its Loader; one mutex serializes all
// mutation, so eviction bookkeeping never races. Entries are immutable
// bitmaps handed out as shared references; callers must not mutate the
// pixels.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	maxBytes   int64
	bytes      int64
	ll         *list.List // front = most recently used
	entries    map[CacheKey]*list.Element
}

type thumbEntry struct {
	key  CacheKey
	img  image.Image
	cost int64
}

// NewCache creates a Cache bounded by maxEntries and maxBytes.
// Non-positive limits fall back to the package defaults.
func NewCache(maxEntries int, maxBytes int64) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Cache{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		ll:         list.New(),
		entries:    make(map[CacheKey]*list.Element),
	}
}

// Get returns the cached bitmap for key, promoting it to most recently
// used. Purely in-memory, no I/O; safe to call on a UI thread.
func (c *Cache) Get(ctx context.Context, key CacheKey) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		observability.Cache().OnCacheMiss(ctx, observability.CacheKindThumbs)
		return nil, false
	}
	c.ll.MoveToFront(el)
	observability.Cache().OnCacheHit(ctx, observability.CacheKindThumbs)
	return el.Value.(*thumbEntry).img, true
}

// Add inserts a decoded bitmap, then evicts from the cold end until both
// ceilings hold. Adding an existing key replaces the bitmap and refreshes
// recency. A bitmap larger than the whole byte budget is evicted
// immediately along with everything else; the ceilings always win.
func (c *Cache) Add(ctx context.Context, key CacheKey, img image.Image) {
	cost := Cost(img)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*thumbEntry)
		c.bytes += cost - entry.cost
		entry.img = img
		entry.cost = cost
		c.ll.MoveToFront(el)
	} else {
		el := c.ll.PushFront(&thumbEntry{key: key, img: img, cost: cost})
		c.entries[key] = el
		c.bytes += cost
	}
	observability.Cache().OnCacheSet(ctx, observability.CacheKindThumbs, int(cost))

	for (c.ll.Len() > c.maxEntries || c.bytes > c.maxBytes) && c.ll.Len() > 0 {
		oldest := c.ll.Back()
		entry := oldest.Value.(*thumbEntry)
		c.ll.Remove(oldest)
		delete(c.entries, entry.key)
		c.bytes -= entry.cost
		observability.Cache().OnCacheEvict(ctx, observability.CacheKindThumbs)
	}
}

// Len returns the number of resident thumbnails.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Bytes returns the resident byte cost.
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// Clear drops every entry immediately. Called on directory changes and
// explicit resets; subsequent loads decode fresh.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.entries = make(map[CacheKey]*list.Element)
	c.bytes = 0
}
