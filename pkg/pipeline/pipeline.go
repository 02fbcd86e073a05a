// Package pipeline provides the core gallery pipeline for Photogrid.
//
// This package implements the complete scan → layout → warm pipeline that
// can be used by CLI, API, and TUI components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Scan: Discover images under a gallery root and read their dimensions
//  2. Layout: Partition the images into rows for a viewport
//  3. Warm: Pre-decode thumbnails for the laid-out images
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, thumbs, logger)
//	opts := pipeline.Options{
//	    Root:   "/photos/vacation",
//	    Policy: layout.PolicyJustified,
//	    Width:  1200,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Layout.RowCount())
//
// Run individual stages:
//
//	// Scan only
//	g, err := runner.Scan(ctx, opts)
//
//	// Layout with an existing gallery
//	l, err := runner.ComputeLayout(ctx, g, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/photogridlab/photogrid/pkg/cache"
	"github.com/photogridlab/photogrid/pkg/errors"
	"github.com/photogridlab/photogrid/pkg/gallery"
	"github.com/photogridlab/photogrid/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and TUI
// =============================================================================

const (
	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = 1200.0

	// DefaultPolicy is the row partitioning policy used when none is set.
	DefaultPolicy = layout.PolicyJustified

	// DefaultThumbWidth and DefaultThumbHeight bound the box thumbnails
	// are decoded to fit.
	DefaultThumbWidth  = 320
	DefaultThumbHeight = 320
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the gallery pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Scan options
	Root    string `json:"root,omitempty"`
	Refresh bool   `json:"refresh,omitempty"` // bypass the cross-run layout cache

	// Layout options
	Policy          layout.Policy `json:"policy,omitempty"`
	Width           float64       `json:"width,omitempty"`
	Spacing         float64       `json:"spacing,omitempty"`
	TargetRowHeight float64       `json:"target_row_height,omitempty"`
	MinRowHeight    float64       `json:"min_row_height,omitempty"`
	MaxRowHeight    float64       `json:"max_row_height,omitempty"`
	ImagesPerRow    int           `json:"images_per_row,omitempty"`
	MaxImagesPerRow int           `json:"max_images_per_row,omitempty"`
	FillLow         float64       `json:"fill_low,omitempty"`
	FillHigh        float64       `json:"fill_high,omitempty"`
	FallbackFill    float64       `json:"fallback_fill,omitempty"`
	FallbackMax     int           `json:"fallback_max,omitempty"`
	HeightSteps     int           `json:"height_steps,omitempty"`

	// Warm options
	ThumbWidth  int `json:"thumb_width,omitempty"`
	ThumbHeight int `json:"thumb_height,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Gallery is the scanned image set.
	Gallery *gallery.Gallery

	// Fingerprint is the content hash of the gallery.
	Fingerprint string

	// Layout contains the computed row geometry.
	Layout gallery.Layout

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ImageCount int
	RowCount   int
	ScanTime   time.Duration
	LayoutTime time.Duration
	WarmTime   time.Duration
	Decoded    int
	Failed     int
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from the cross-run cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForScan(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForWarm(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForScan checks required fields for scanning.
func (o *Options) ValidateForScan() error {
	if o.Root == "" {
		return errors.New(errors.ErrCodeInvalidInput, "root is required")
	}
	if err := errors.ValidatePath(o.Root); err != nil {
		return err
	}
	o.setLoggerDefault()
	return nil
}

// SetLayoutDefaults sets default values for layout computation. Geometry
// fields left at zero pick up the solver defaults; a non-positive width
// is kept as-is and handled by the solver's degenerate path.
func (o *Options) SetLayoutDefaults() {
	if o.Policy == "" {
		o.Policy = DefaultPolicy
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	o.setLoggerDefault()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if !o.Policy.Valid() {
		return errors.New(errors.ErrCodeInvalidPolicy, "unknown policy %q", o.Policy)
	}
	if o.Spacing < 0 {
		return errors.New(errors.ErrCodeInvalidSpacing, "spacing must not be negative, got %g", o.Spacing)
	}
	return nil
}

// ValidateForWarm validates and sets defaults for thumbnail warming.
func (o *Options) ValidateForWarm() error {
	if o.ThumbWidth == 0 {
		o.ThumbWidth = DefaultThumbWidth
	}
	if o.ThumbHeight == 0 {
		o.ThumbHeight = DefaultThumbHeight
	}
	o.setLoggerDefault()
	return errors.ValidateThumbSize(o.ThumbWidth, o.ThumbHeight)
}

func (o *Options) setLoggerDefault() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutParams maps the options onto the solver's parameter set. Zeroed
// fields fall through to the solver defaults.
func (o *Options) LayoutParams() layout.Params {
	p := layout.DefaultParams(o.Width)
	if o.Spacing != 0 {
		p.Spacing = o.Spacing
	}
	if o.TargetRowHeight != 0 {
		p.TargetRowHeight = o.TargetRowHeight
	}
	if o.MinRowHeight != 0 {
		p.MinRowHeight = o.MinRowHeight
	}
	if o.MaxRowHeight != 0 {
		p.MaxRowHeight = o.MaxRowHeight
	}
	if o.ImagesPerRow != 0 {
		p.ImagesPerRow = o.ImagesPerRow
	}
	if o.MaxImagesPerRow != 0 {
		p.MaxImagesPerRow = o.MaxImagesPerRow
	}
	if o.FillLow != 0 {
		p.FillLow = o.FillLow
	}
	if o.FillHigh != 0 {
		p.FillHigh = o.FillHigh
	}
	if o.FallbackFill != 0 {
		p.FallbackFill = o.FallbackFill
	}
	if o.FallbackMax != 0 {
		p.FallbackMaxImages = o.FallbackMax
	}
	if o.HeightSteps != 0 {
		p.HeightSteps = o.HeightSteps
	}
	return p
}

// LayoutKeyOpts returns cache key options for layout computation. Every
// parameter the selected policy reads is included, so tuning any knob
// (height band, fill thresholds, search caps) produces a new key
// instead of resurrecting a stale stored layout.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	p := o.LayoutParams()
	opts := cache.LayoutKeyOpts{
		Policy:   string(o.Policy),
		WidthQ:   layout.Quantize(p.AvailableWidth),
		SpacingQ: layout.Quantize(p.Spacing),
	}
	if o.Policy == layout.PolicyFixedGrid {
		opts.PerRow = p.ImagesPerRow
		return opts
	}
	opts.HeightQ = layout.Quantize(p.TargetRowHeight)
	opts.MinHeightQ = layout.Quantize(p.MinRowHeight)
	opts.MaxHeightQ = layout.Quantize(p.MaxRowHeight)
	opts.MaxPerRow = p.MaxImagesPerRow
	opts.FillLowQ = layout.QuantizeRatio(p.FillLow)
	opts.FillHighQ = layout.QuantizeRatio(p.FillHigh)
	opts.FallbackQ = layout.QuantizeRatio(p.FallbackFill)
	opts.FallbackMax = p.FallbackMaxImages
	opts.Steps = p.HeightSteps
	return opts
}
