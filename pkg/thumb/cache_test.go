package thumb

import (
	"context"
	"image"
	"testing"
)

func mkBitmap(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func key(id string) CacheKey {
	return CacheKey{ImageID: id, Width: 100, Height: 100}
}

// ============================================================================
// COST
// ============================================================================

func TestCost(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want int64
	}{
		{name: "square", w: 100, h: 100, want: 40000},
		{name: "wide", w: 200, h: 50, want: 40000},
		{name: "single pixel", w: 1, h: 1, want: 4},
		{name: "empty", w: 0, h: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cost(mkBitmap(tt.w, tt.h)); got != tt.want {
				t.Errorf("Cost(%dx%d) = %d, want %d", tt.w, tt.h, got, tt.want)
			}
		})
	}
}

// ============================================================================
// ENTRY BOUND
// ============================================================================

func TestCacheEvictsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	c := NewCache(2, 0)

	c.Add(ctx, key("a"), mkBitmap(10, 10))
	c.Add(ctx, key("b"), mkBitmap(10, 10))
	c.Add(ctx, key("c"), mkBitmap(10, 10))

	if _, ok := c.Get(ctx, key("a")); ok {
		t.Error("oldest entry should have been evicted")
	}
	for _, id := range []string{"b", "c"} {
		if _, ok := c.Get(ctx, key(id)); !ok {
			t.Errorf("entry %q should still be cached", id)
		}
	}
	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestCacheGetRefreshesRecency(t *testing.T) {
	ctx := context.Background()
	c := NewCache(2, 0)

	c.Add(ctx, key("a"), mkBitmap(10, 10))
	c.Add(ctx, key("b"), mkBitmap(10, 10))
	if _, ok := c.Get(ctx, key("a")); !ok {
		t.Fatal("expected hit for a")
	}
	c.Add(ctx, key("c"), mkBitmap(10, 10))

	if _, ok := c.Get(ctx, key("b")); ok {
		t.Error("b was least recently used and should be gone")
	}
	if _, ok := c.Get(ctx, key("a")); !ok {
		t.Error("a was touched and should survive")
	}
}

// ============================================================================
// BYTE BOUND
// ============================================================================

func TestCacheByteBudget(t *testing.T) {
	ctx := context.Background()
	c := NewCache(100, 10000) // room for exactly one 50x50 bitmap

	c.Add(ctx, key("a"), mkBitmap(50, 50))
	if got := c.Bytes(); got != 10000 {
		t.Fatalf("Bytes() = %d, want 10000", got)
	}

	c.Add(ctx, key("b"), mkBitmap(50, 50))
	if _, ok := c.Get(ctx, key("a")); ok {
		t.Error("byte budget should have evicted a")
	}
	if _, ok := c.Get(ctx, key("b")); !ok {
		t.Error("b should be resident")
	}
	if got := c.Bytes(); got != 10000 {
		t.Errorf("Bytes() = %d, want 10000", got)
	}
}

func TestCacheOversizedEntryEvicted(t *testing.T) {
	ctx := context.Background()
	c := NewCache(100, 100)

	c.Add(ctx, key("huge"), mkBitmap(50, 50))
	if got := c.Len(); got != 0 {
		t.Errorf("entry over the whole budget must not stay resident, Len() = %d", got)
	}
	if got := c.Bytes(); got != 0 {
		t.Errorf("Bytes() = %d, want 0", got)
	}
}

func TestCacheReplaceAdjustsBytes(t *testing.T) {
	ctx := context.Background()
	c := NewCache(10, 0)

	c.Add(ctx, key("a"), mkBitmap(10, 10))
	c.Add(ctx, key("a"), mkBitmap(20, 10))

	if got := c.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
	if got := c.Bytes(); got != 800 {
		t.Errorf("Bytes() = %d, want 800", got)
	}
}

func TestCacheClear(t *testing.T) {
	ctx := context.Background()
	c := NewCache(10, 0)

	c.Add(ctx, key("a"), mkBitmap(10, 10))
	c.Add(ctx, key("b"), mkBitmap(10, 10))
	c.Clear()

	if got := c.Len(); got != 0 {
		t.Errorf("Len() = %d after Clear, want 0", got)
	}
	if got := c.Bytes(); got != 0 {
		t.Errorf("Bytes() = %d after Clear, want 0", got)
	}
	if _, ok := c.Get(ctx, key("a")); ok {
		t.Error("cleared entry should miss")
	}
}
