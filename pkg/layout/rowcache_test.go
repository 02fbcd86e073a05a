package layout

import (
	"context"
	"testing"

	"github.com/photogridlab/photogrid/pkg/gallery"
)

func solveOnce(t *testing.T, c *RowCache, key RowKey, images []gallery.ImageRecord, p Params, calls *int) []gallery.LayoutRow {
	t.Helper()
	rows, _ := c.GetOrCompute(context.Background(), key, func() []gallery.LayoutRow {
		*calls++
		return Solve(images, PolicyJustified, p)
	})
	return rows
}

func TestRowCacheHitSkipsCompute(t *testing.T) {
	c := NewRowCache(8)
	images := imagesWithAspects(1.0, 1.5, 0.8)
	p := DefaultParams(600)
	key := NewRowKey(len(images), PolicyJustified, p)

	calls := 0
	first := solveOnce(t, c, key, images, p, &calls)
	second := solveOnce(t, c, key, images, p, &calls)

	if calls != 1 {
		t.Errorf("compute calls = %d, want 1", calls)
	}
	if len(first) != len(second) {
		t.Errorf("hit returned different row count: %d vs %d", len(first), len(second))
	}

	_, hit := c.GetOrCompute(context.Background(), key, func() []gallery.LayoutRow { return nil })
	if !hit {
		t.Error("third access should be a hit")
	}
}

func TestRowCacheLRUEviction(t *testing.T) {
	c := NewRowCache(2)
	images := imagesWithAspects(1.0)
	p := DefaultParams(600)

	keyA := NewRowKey(1, PolicyJustified, p)
	pB := p
	pB.AvailableWidth = 700
	keyB := NewRowKey(1, PolicyJustified, pB)
	pC := p
	pC.AvailableWidth = 800
	keyC := NewRowKey(1, PolicyJustified, pC)

	ctx := context.Background()
	compute := func() []gallery.LayoutRow { return Solve(images, PolicyJustified, p) }

	c.GetOrCompute(ctx, keyA, compute)
	c.GetOrCompute(ctx, keyB, compute)
	c.GetOrCompute(ctx, keyC, compute) // evicts A, the oldest

	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get(ctx, keyA); ok {
		t.Error("A should have been evicted")
	}
	if _, ok := c.Get(ctx, keyB); !ok {
		t.Error("B should still be resident")
	}
	if _, ok := c.Get(ctx, keyC); !ok {
		t.Error("C should still be resident")
	}
}

func TestRowCacheAccessRefreshesRecency(t *testing.T) {
	c := NewRowCache(2)
	images := imagesWithAspects(1.0)
	p := DefaultParams(600)
	compute := func() []gallery.LayoutRow { return Solve(images, PolicyJustified, p) }

	keys := make([]RowKey, 3)
	for i := range keys {
		pi := p
		pi.AvailableWidth = 600 + float64(i)*100
		keys[i] = NewRowKey(1, PolicyJustified, pi)
	}

	ctx := context.Background()
	c.GetOrCompute(ctx, keys[0], compute)
	c.GetOrCompute(ctx, keys[1], compute)
	c.Get(ctx, keys[0]) // refresh A: B is now the oldest
	c.GetOrCompute(ctx, keys[2], compute)

	if _, ok := c.Get(ctx, keys[1]); ok {
		t.Error("B should have been evicted after A was refreshed")
	}
	if _, ok := c.Get(ctx, keys[0]); !ok {
		t.Error("refreshed A should survive")
	}
}

func TestRowCacheClear(t *testing.T) {
	c := NewRowCache(4)
	images := imagesWithAspects(1.0, 2.0)
	p := DefaultParams(500)
	key := NewRowKey(len(images), PolicyJustified, p)

	calls := 0
	solveOnce(t, c, key, images, p, &calls)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get(context.Background(), key); ok {
		t.Error("Get after Clear should miss")
	}

	solveOnce(t, c, key, images, p, &calls)
	if calls != 2 {
		t.Errorf("compute calls = %d, want 2 (recompute after clear)", calls)
	}
}

func TestRowCacheHandsOutCopies(t *testing.T) {
	c := NewRowCache(4)
	images := imagesWithAspects(1.0, 1.0)
	p := DefaultParams(500)
	key := NewRowKey(len(images), PolicyJustified, p)

	rows, _ := c.GetOrCompute(context.Background(), key, func() []gallery.LayoutRow {
		return Solve(images, PolicyJustified, p)
	})
	if len(rows) == 0 {
		t.Fatal("no rows")
	}

	// Clobber the returned slice; the cached copy must be unaffected.
	rows[0] = gallery.LayoutRow{}

	again, ok := c.Get(context.Background(), key)
	if !ok {
		t.Fatal("expected hit")
	}
	if again[0].Count() == 0 {
		t.Error("mutating the returned slice corrupted the cache")
	}
}

func TestRowKeyQuantization(t *testing.T) {
	base := DefaultParams(600.01)
	jitter := DefaultParams(600.04)
	distinct := DefaultParams(600.3)

	k1 := NewRowKey(5, PolicyJustified, base)
	k2 := NewRowKey(5, PolicyJustified, jitter)
	k3 := NewRowKey(5, PolicyJustified, distinct)

	if k1 != k2 {
		t.Error("sub-tenth jitter should map to the same key")
	}
	if k1 == k3 {
		t.Error("a 0.3 unit width change should map to a different key")
	}

	if NewRowKey(5, PolicyFixedGrid, base) == k1 {
		t.Error("policy must be part of the key")
	}
	if NewRowKey(6, PolicyJustified, base) == k1 {
		t.Error("image count must be part of the key")
	}
}

// Every parameter the justified solver reads must change the key, or two
// requests differing only in that parameter would share a cached solve.
func TestRowKeyCoversJustifiedParams(t *testing.T) {
	base := DefaultParams(600)
	variants := []struct {
		name   string
		mutate func(*Params)
	}{
		{"target height", func(p *Params) { p.TargetRowHeight += 20 }},
		{"min height", func(p *Params) { p.MinRowHeight += 20 }},
		{"max height", func(p *Params) { p.MaxRowHeight += 20 }},
		{"spacing", func(p *Params) { p.Spacing += 2 }},
		{"max images per row", func(p *Params) { p.MaxImagesPerRow += 1 }},
		{"fill low", func(p *Params) { p.FillLow -= 0.05 }},
		{"fill high", func(p *Params) { p.FillHigh -= 0.02 }},
		{"fallback fill", func(p *Params) { p.FallbackFill += 0.05 }},
		{"fallback max", func(p *Params) { p.FallbackMaxImages += 1 }},
		{"height steps", func(p *Params) { p.HeightSteps += 1 }},
	}

	k := NewRowKey(5, PolicyJustified, base)
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			p := base
			v.mutate(&p)
			if NewRowKey(5, PolicyJustified, p) == k {
				t.Errorf("changing %s did not change the key", v.name)
			}
		})
	}
}

// The fixed-grid key only covers what the grid policy reads: per-row
// count, width, and spacing. Justified-only knobs must not fragment it.
func TestRowKeyGridParams(t *testing.T) {
	base := DefaultParams(600)
	base.ImagesPerRow = 4
	k := NewRowKey(8, PolicyFixedGrid, base)

	perRow := base
	perRow.ImagesPerRow = 5
	if NewRowKey(8, PolicyFixedGrid, perRow) == k {
		t.Error("images per row must be part of the grid key")
	}

	fill := base
	fill.FillLow = 0.5
	fill.TargetRowHeight += 40
	if NewRowKey(8, PolicyFixedGrid, fill) != k {
		t.Error("parameters the grid policy ignores must not change its key")
	}
}
