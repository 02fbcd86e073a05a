package pipeline

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/photogridlab/photogrid/pkg/cache"
	"github.com/photogridlab/photogrid/pkg/errors"
	"github.com/photogridlab/photogrid/pkg/gallery"
	"github.com/photogridlab/photogrid/pkg/layout"
	"github.com/photogridlab/photogrid/pkg/observability"
	"github.com/photogridlab/photogrid/pkg/source/local"
	"github.com/photogridlab/photogrid/pkg/thumb"
)

// Runner encapsulates pipeline execution with caching.
// CLI, API, and TUI all use this to avoid duplicating caching logic.
//
// The Runner holds no per-gallery state beyond its caches. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Rows   *layout.RowCache
	Thumbs *thumb.Loader
	Logger *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used. If c is nil, a NullCache is
// used (cross-run caching disabled). If thumbs is nil, a loader with
// default bounds and the imaging decoder is started.
func NewRunner(c cache.Cache, keyer cache.Keyer, thumbs *thumb.Loader, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if thumbs == nil {
		thumbs = thumb.NewLoader(nil, nil, 0)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Rows:   layout.NewRowCache(layout.DefaultRowCacheSize),
		Thumbs: thumbs,
		Logger: logger,
	}
}

// Execute runs the complete scan → layout → warm pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Scan
	scanStart := time.Now()
	g, err := r.Scan(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "scan")
	}
	result.Gallery = g
	result.Fingerprint = g.Fingerprint()
	result.Stats.ScanTime = time.Since(scanStart)
	result.Stats.ImageCount = len(g.Images)

	r.Logger.Info("scanned gallery",
		"root", g.Root,
		"images", len(g.Images),
		"duration", result.Stats.ScanTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "layout")
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.RowCount = l.RowCount()
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"policy", l.Policy,
		"rows", l.RowCount(),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Warm
	warmStart := time.Now()
	decoded, failed := r.Warm(ctx, g, opts)
	result.Stats.WarmTime = time.Since(warmStart)
	result.Stats.Decoded = decoded
	result.Stats.Failed = failed

	r.Logger.Info("warmed thumbnails",
		"decoded", decoded,
		"failed", failed,
		"duration", result.Stats.WarmTime)

	return result, nil
}

// Scan discovers the images under opts.Root.
func (r *Runner) Scan(ctx context.Context, opts Options) (*gallery.Gallery, error) {
	if err := opts.ValidateForScan(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	return local.NewScanner(opts.Logger).Scan(ctx, opts.Root)
}

// ComputeLayoutWithCacheInfo computes a layout with caching and reports
// whether it came from the cross-run cache.
//
// Two cache layers apply. The in-memory row cache memoizes the solve for
// repeated geometry within this process (a resize snapping back, the TUI
// re-rendering). The cross-run cache stores the serialized layout keyed
// by gallery fingerprint plus geometry, so another process or replica
// skips the solve entirely.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, g *gallery.Gallery, opts Options) (gallery.Layout, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return gallery.Layout{}, false, err
	}
	r.applyLogger(&opts)

	params := opts.LayoutParams()
	cacheKey := r.Keyer.LayoutKey(g.Fingerprint(), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			cached, err := gallery.UnmarshalLayout(data)
			if err == nil {
				observability.Cache().OnCacheHit(ctx, observability.CacheKindLayouts)
				return cached, true, nil
			}
			// Corrupt entry: fall through to recompute.
		}
		observability.Cache().OnCacheMiss(ctx, observability.CacheKindLayouts)
	}

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, string(opts.Policy), len(g.Images))

	rowKey := layout.NewRowKey(len(g.Images), opts.Policy, params)
	rows, _ := r.Rows.GetOrCompute(ctx, rowKey, func() []gallery.LayoutRow {
		return layout.Solve(g.Images, opts.Policy, params)
	})
	l := layout.Assemble(rows, opts.Policy, params)

	observability.Pipeline().OnLayoutComplete(ctx, string(opts.Policy), l.RowCount(), time.Since(start), nil)

	// Stored unconditionally: a forced recompute replaces whatever the
	// backend held for this key.
	if data, err := gallery.MarshalLayout(l); err == nil {
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout) == nil {
			observability.Cache().OnCacheSet(ctx, observability.CacheKindLayouts, len(data))
		}
	}

	return l, false, nil
}

// ComputeLayout is a convenience wrapper that discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, g *gallery.Gallery, opts Options) (gallery.Layout, error) {
	l, _, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	return l, err
}

// Warm pre-decodes thumbnails for every image in the gallery and blocks
// until all decodes finish. It returns how many decoded and how many
// failed. Failures are per-image and never abort the warm.
func (r *Runner) Warm(ctx context.Context, g *gallery.Gallery, opts Options) (decoded, failed int) {
	if err := opts.ValidateForWarm(); err != nil {
		r.Logger.Warn("skipping warm", "err", err)
		return 0, 0
	}
	r.applyLogger(&opts)

	start := time.Now()
	observability.Pipeline().OnWarmStart(ctx, len(g.Images))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, rec := range g.Images {
		wg.Add(1)
		r.Thumbs.Load(ctx, rec, opts.ThumbWidth, opts.ThumbHeight, func(img image.Image) {
			mu.Lock()
			if img != nil {
				decoded++
			} else {
				failed++
			}
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	observability.Pipeline().OnWarmComplete(ctx, decoded, failed, time.Since(start))
	return decoded, failed
}

// Invalidate drops all derived state for the current gallery: the row
// cache and the thumbnail cache. Called when the source directory
// changes; the cross-run cache needs no invalidation because its keys
// include the gallery fingerprint.
func (r *Runner) Invalidate() {
	r.Rows.Clear()
	r.Thumbs.Clear()
	r.Logger.Debug("invalidated in-memory caches")
}

// Close releases resources held by the runner: the thumbnail loader's
// workers and the cache backend.
func (r *Runner) Close() error {
	r.Thumbs.Close()
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
