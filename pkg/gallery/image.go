package gallery

import "math"

// minAspect is the floor for aspect ratios used in layout math. Dividing by
// an aspect ratio below this value would produce unusable geometry, so
// callers always see at least this much.
const minAspect = 1e-6

// ImageRecord is the immutable per-image metadata the layout engine operates
// on. Records are created by a collaborator (typically the directory scanner)
// and never mutated afterwards; the engine only reads them.
type ImageRecord struct {
	// ID is a stable opaque identifier, unique within a gallery.
	ID string `json:"id"`

	// Path is the source reference for the decode collaborator.
	Path string `json:"path,omitempty"`

	// Width and Height are the source pixel dimensions. Zero or negative
	// values mean the dimensions are unknown; AspectRatio treats such
	// records as square rather than failing.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// AspectRatio returns width/height for the record.
//
// Records with zero, negative, or non-finite dimensions report 1.0 by
// convention so that broken files still occupy a sane slot in the grid.
// The result is never smaller than a positive epsilon, so dividing by it
// is always safe.
func (r ImageRecord) AspectRatio() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 1.0
	}
	ar := r.Width / r.Height
	if math.IsNaN(ar) || math.IsInf(ar, 0) {
		return 1.0
	}
	if ar < minAspect {
		return minAspect
	}
	return ar
}
