package pipeline

import (
	"context"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/photogridlab/photogrid/pkg/cache"
	"github.com/photogridlab/photogrid/pkg/errors"
	"github.com/photogridlab/photogrid/pkg/gallery"
	"github.com/photogridlab/photogrid/pkg/layout"
	"github.com/photogridlab/photogrid/pkg/observability"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func galleryDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "a.png"), 40, 20)
	writePNG(t, filepath.Join(root, "b.png"), 20, 20)
	writePNG(t, filepath.Join(root, "c.png"), 30, 20)
	return root
}

// ============================================================================
// OPTIONS
// ============================================================================

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr errors.Code
	}{
		{
			name:    "missing root",
			opts:    Options{},
			wantErr: errors.ErrCodeInvalidInput,
		},
		{
			name:    "traversal root",
			opts:    Options{Root: "photos/../../etc"},
			wantErr: errors.ErrCodeInvalidPath,
		},
		{
			name:    "unknown policy",
			opts:    Options{Root: "/photos", Policy: "masonry"},
			wantErr: errors.ErrCodeInvalidPolicy,
		},
		{
			name:    "negative spacing",
			opts:    Options{Root: "/photos", Spacing: -1},
			wantErr: errors.ErrCodeInvalidSpacing,
		},
		{
			name:    "oversized thumbs",
			opts:    Options{Root: "/photos", ThumbWidth: 100000, ThumbHeight: 100},
			wantErr: errors.ErrCodeInvalidInput,
		},
		{
			name: "valid",
			opts: Options{Root: "/photos"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.wantErr {
				t.Errorf("code = %v, want %v", got, tt.wantErr)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Root: "/photos"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Policy != layout.PolicyJustified {
		t.Errorf("Policy = %q, want justified", opts.Policy)
	}
	if opts.Width != DefaultWidth {
		t.Errorf("Width = %g, want %g", opts.Width, DefaultWidth)
	}
	if opts.ThumbWidth != DefaultThumbWidth || opts.ThumbHeight != DefaultThumbHeight {
		t.Errorf("thumb box = %dx%d, want %dx%d",
			opts.ThumbWidth, opts.ThumbHeight, DefaultThumbWidth, DefaultThumbHeight)
	}
}

func TestOptionsLayoutParams(t *testing.T) {
	opts := Options{Width: 800, Spacing: 4, TargetRowHeight: 180, ImagesPerRow: 5}
	p := opts.LayoutParams()

	if p.AvailableWidth != 800 || p.Spacing != 4 || p.TargetRowHeight != 180 || p.ImagesPerRow != 5 {
		t.Errorf("overrides not applied: %+v", p)
	}
	if p.MinRowHeight != layout.DefaultMinRowHeight {
		t.Errorf("MinRowHeight = %g, want solver default", p.MinRowHeight)
	}
	if p.FillLow != layout.DefaultFillLow {
		t.Errorf("FillLow = %g, want solver default", p.FillLow)
	}
}

func TestOptionsLayoutKeyOpts(t *testing.T) {
	grid := Options{Policy: layout.PolicyFixedGrid, Width: 600, ImagesPerRow: 4}
	if got := grid.LayoutKeyOpts(); got.PerRow != 4 {
		t.Errorf("grid PerRow = %d, want 4", got.PerRow)
	}
	justified := Options{Policy: layout.PolicyJustified, Width: 600}
	if got := justified.LayoutKeyOpts(); got.PerRow != 0 {
		t.Errorf("justified PerRow = %d, want 0", got.PerRow)
	}
	if grid.LayoutKeyOpts() == justified.LayoutKeyOpts() {
		t.Error("policies must key differently")
	}
}

// ============================================================================
// RUNNER
// ============================================================================

func TestRunnerExecute(t *testing.T) {
	root := galleryDir(t)
	r := NewRunner(nil, nil, nil, nil)
	defer r.Close()

	result, err := r.Execute(context.Background(), Options{Root: root, Width: 600})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if result.Stats.ImageCount != 3 {
		t.Errorf("ImageCount = %d, want 3", result.Stats.ImageCount)
	}
	if result.Layout.RowCount() == 0 {
		t.Error("expected at least one row")
	}
	if result.Layout.ImageCount() != 3 {
		t.Errorf("layout covers %d images, want 3", result.Layout.ImageCount())
	}
	if result.Fingerprint == "" {
		t.Error("expected a gallery fingerprint")
	}
	if result.Stats.Decoded != 3 || result.Stats.Failed != 0 {
		t.Errorf("warm decoded/failed = %d/%d, want 3/0", result.Stats.Decoded, result.Stats.Failed)
	}
}

func TestRunnerLayoutCrossRunCache(t *testing.T) {
	root := galleryDir(t)
	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(backend, nil, nil, nil)
	defer r.Close()

	ctx := context.Background()
	opts := Options{Root: root, Width: 600}
	g, err := r.Scan(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}

	first, hit, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first layout should miss the cross-run cache")
	}

	// Fresh row cache proves the hit comes from the backend.
	r.Rows.Clear()
	second, hit, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second layout should hit the cross-run cache")
	}
	if first.TotalHeight != second.TotalHeight || first.RowCount() != second.RowCount() {
		t.Error("cached layout differs from computed layout")
	}

	refreshed := opts
	refreshed.Refresh = true
	if _, hit, err = r.ComputeLayoutWithCacheInfo(ctx, g, refreshed); err != nil {
		t.Fatal(err)
	} else if hit {
		t.Error("Refresh should bypass the cross-run cache")
	}
}

func TestRunnerLayoutKeyTracksHeightFloor(t *testing.T) {
	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(backend, nil, nil, nil)
	defer r.Close()

	// A 10:1 panorama at width 500 solves to height 50 when the floor
	// allows it.
	g := &gallery.Gallery{Root: "/panoramas", Images: []gallery.ImageRecord{
		{ID: "pano", Path: "/panoramas/p.jpg", Width: 1000, Height: 100},
	}}
	ctx := context.Background()

	relaxed, _, err := r.ComputeLayoutWithCacheInfo(ctx, g,
		Options{Root: "/panoramas", Width: 500, MinRowHeight: 40})
	if err != nil {
		t.Fatal(err)
	}
	if h := relaxed.Rows[0].Height; math.Abs(h-50) > 1e-9 {
		t.Fatalf("relaxed floor: height = %v, want 50", h)
	}

	// A raised floor is different geometry and must not be served the
	// layout stored for the relaxed one.
	strict, hit, err := r.ComputeLayoutWithCacheInfo(ctx, g,
		Options{Root: "/panoramas", Width: 500, MinRowHeight: 120})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("raised floor should miss the cross-run cache")
	}
	if h := strict.Rows[0].Height; h < 120-1e-9 {
		t.Errorf("raised floor: height = %v, want >= 120", h)
	}
}

func TestRunnerRefreshWritesBack(t *testing.T) {
	root := galleryDir(t)
	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(backend, nil, nil, nil)
	defer r.Close()

	ctx := context.Background()
	opts := Options{Root: root, Width: 600}
	g, err := r.Scan(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}

	// A forced recompute bypasses the read but still stores its result.
	forced := opts
	forced.Refresh = true
	if _, _, err := r.ComputeLayoutWithCacheInfo(ctx, g, forced); err != nil {
		t.Fatal(err)
	}

	r.Rows.Clear()
	if _, hit, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts); err != nil {
		t.Fatal(err)
	} else if !hit {
		t.Error("layout stored by a forced recompute should be served to the next run")
	}
}

type countingCacheHooks struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
	sets   map[string]int
}

func newCountingCacheHooks() *countingCacheHooks {
	return &countingCacheHooks{
		hits:   make(map[string]int),
		misses: make(map[string]int),
		sets:   make(map[string]int),
	}
}

func (c *countingCacheHooks) OnCacheHit(_ context.Context, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits[kind]++
}

func (c *countingCacheHooks) OnCacheMiss(_ context.Context, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses[kind]++
}

func (c *countingCacheHooks) OnCacheSet(_ context.Context, kind string, _ int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[kind]++
}

func (c *countingCacheHooks) OnCacheEvict(_ context.Context, _ string) {}

func (c *countingCacheHooks) get(m map[string]int, kind string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return m[kind]
}

func TestRunnerLayoutCacheHooks(t *testing.T) {
	defer observability.Reset()
	rec := newCountingCacheHooks()
	observability.SetCacheHooks(rec)

	root := galleryDir(t)
	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(backend, nil, nil, nil)
	defer r.Close()

	ctx := context.Background()
	opts := Options{Root: root, Width: 600}
	g, err := r.Scan(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts); err != nil {
		t.Fatal(err)
	}
	if got := rec.get(rec.misses, observability.CacheKindLayouts); got != 1 {
		t.Errorf("layouts misses = %d, want 1", got)
	}
	if got := rec.get(rec.sets, observability.CacheKindLayouts); got != 1 {
		t.Errorf("layouts sets = %d, want 1", got)
	}

	r.Rows.Clear()
	if _, _, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts); err != nil {
		t.Fatal(err)
	}
	if got := rec.get(rec.hits, observability.CacheKindLayouts); got != 1 {
		t.Errorf("layouts hits = %d, want 1", got)
	}
}

func TestRunnerWarmCountsFailures(t *testing.T) {
	root := galleryDir(t)
	r := NewRunner(nil, nil, nil, nil)
	defer r.Close()

	g := &gallery.Gallery{Root: root, Images: []gallery.ImageRecord{
		{ID: "good", Path: filepath.Join(root, "a.png"), Width: 40, Height: 20},
		{ID: "gone", Path: filepath.Join(root, "missing.png"), Width: 10, Height: 10},
	}}

	decoded, failed := r.Warm(context.Background(), g, Options{Root: root})
	if decoded != 1 || failed != 1 {
		t.Errorf("decoded/failed = %d/%d, want 1/1", decoded, failed)
	}
	if got := r.Thumbs.Cache().Len(); got != 1 {
		t.Errorf("thumb cache Len() = %d, want 1 (failures are not cached)", got)
	}
}

func TestRunnerInvalidate(t *testing.T) {
	root := galleryDir(t)
	r := NewRunner(nil, nil, nil, nil)
	defer r.Close()

	if _, err := r.Execute(context.Background(), Options{Root: root, Width: 600}); err != nil {
		t.Fatal(err)
	}
	if r.Rows.Len() == 0 {
		t.Fatal("expected a populated row cache")
	}

	r.Invalidate()
	if r.Rows.Len() != 0 {
		t.Error("row cache should be empty after Invalidate")
	}
	if r.Thumbs.Cache().Len() != 0 {
		t.Error("thumb cache should be empty after Invalidate")
	}
}
