package layout

import (
	"container/list"
	"context"
	"math"
	"sync"

	"github.com/photogridlab/photogrid/pkg/gallery"
	"github.com/photogridlab/photogrid/pkg/observability"
)

// DefaultRowCacheSize is the entry cap used when NewRowCache is given a
// non-positive size.
const DefaultRowCacheSize = 128

// RowKey identifies a solve result in the geometry cache.
//
// Every parameter the selected policy reads participates in the key;
// parameters the policy ignores stay zero, so requests differing only
// in a knob that cannot change the solve share an entry. Pixel inputs
// are quantized to a tenth of a unit so sub-pixel jitter from resize
// events maps to the same entry instead of churning the cache; fill
// rates are quantized to thousandths.
type RowKey struct {
	Count  int
	Policy Policy

	WidthQ   int32
	SpacingQ int32

	// Fixed-grid only.
	PerRow int

	// Justified only.
	HeightQ     int32
	MinHeightQ  int32
	MaxHeightQ  int32
	MaxPerRow   int
	FillLowQ    int32
	FillHighQ   int32
	FallbackQ   int32
	FallbackMax int
	Steps       int
}

// NewRowKey builds the cache key for solving count images under the given
// policy and geometry.
func NewRowKey(count int, policy Policy, p Params) RowKey {
	k := RowKey{
		Count:    count,
		Policy:   policy,
		WidthQ:   Quantize(p.AvailableWidth),
		SpacingQ: Quantize(p.Spacing),
	}
	if policy == PolicyFixedGrid {
		k.PerRow = p.ImagesPerRow
		return k
	}
	k.HeightQ = Quantize(p.TargetRowHeight)
	k.MinHeightQ = Quantize(p.MinRowHeight)
	k.MaxHeightQ = Quantize(p.MaxRowHeight)
	k.MaxPerRow = p.MaxImagesPerRow
	k.FillLowQ = QuantizeRatio(p.FillLow)
	k.FillHighQ = QuantizeRatio(p.FillHigh)
	k.FallbackQ = QuantizeRatio(p.FallbackFill)
	k.FallbackMax = p.FallbackMaxImages
	k.Steps = p.HeightSteps
	return k
}

// Quantize maps a pixel value to tenth-of-a-pixel resolution. Geometry
// that differs by less than a tenth of a pixel keys identically.
func Quantize(v float64) int32 {
	return int32(math.Round(v * 10))
}

// QuantizeRatio maps a fill-rate ratio to thousandths, fine enough that
// any configurable threshold change produces a distinct key.
func QuantizeRatio(v float64) int32 {
	return int32(math.Round(v * 1000))
}

// RowCache memoizes solver output keyed by quantized geometry, with strict
// least-recently-used eviction at a fixed entry cap.
//
// A single lock serializes all access: the solver is fast and bounded, so
// computing under the lock keeps writes linearizable per key without a
// second bookkeeping layer. Hits promote the entry; inserting past the cap
// evicts from the cold end.
//
// The cache owns its entries and hands out copies of the row slice, never
// internal handles. Row contents (records, sizes) are shared and must be
// treated as read-only by callers.
type RowCache struct {
	mu         sync.Mutex
	maxEntries int
	ll         *list.List // front = most recently used
	entries    map[RowKey]*list.Element
}

type rowCacheEntry struct {
	key  RowKey
	rows []gallery.LayoutRow
}

// NewRowCache creates a RowCache holding at most maxEntries solve results.
// Non-positive sizes fall back to DefaultRowCacheSize.
func NewRowCache(maxEntries int) *RowCache {
	if maxEntries <= 0 {
		maxEntries = DefaultRowCacheSize
	}
	return &RowCache{
		maxEntries: maxEntries,
		ll:         list.New(),
		entries:    make(map[RowKey]*list.Element),
	}
}

// GetOrCompute returns the cached rows for key, computing and inserting
// them on a miss. The boolean reports whether the result was a cache hit.
//
// compute runs under the cache lock, so concurrent callers of the same key
// never race on eviction bookkeeping and never duplicate a solve.
func (c *RowCache) GetOrCompute(ctx context.Context, key RowKey, compute func() []gallery.LayoutRow) ([]gallery.LayoutRow, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.ll.MoveToFront(el)
		observability.Cache().OnCacheHit(ctx, observability.CacheKindRows)
		return copyRows(el.Value.(*rowCacheEntry).rows), true
	}

	observability.Cache().OnCacheMiss(ctx, observability.CacheKindRows)
	rows := compute()

	el := c.ll.PushFront(&rowCacheEntry{key: key, rows: rows})
	c.entries[key] = el
	observability.Cache().OnCacheSet(ctx, observability.CacheKindRows, len(rows))

	for c.ll.Len() > c.maxEntries {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.entries, oldest.Value.(*rowCacheEntry).key)
		observability.Cache().OnCacheEvict(ctx, observability.CacheKindRows)
	}

	return copyRows(rows), false
}

// Get returns the cached rows for key without computing on a miss.
func (c *RowCache) Get(ctx context.Context, key RowKey) ([]gallery.LayoutRow, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		observability.Cache().OnCacheMiss(ctx, observability.CacheKindRows)
		return nil, false
	}
	c.ll.MoveToFront(el)
	observability.Cache().OnCacheHit(ctx, observability.CacheKindRows)
	return copyRows(el.Value.(*rowCacheEntry).rows), true
}

// Clear drops every entry. Called on structural changes: a new image set
// invalidates all cached partitions at once.
func (c *RowCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.entries = make(map[RowKey]*list.Element)
}

// Len returns the number of resident entries.
func (c *RowCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func copyRows(rows []gallery.LayoutRow) []gallery.LayoutRow {
	out := make([]gallery.LayoutRow, len(rows))
	copy(out, rows)
	return out
}
