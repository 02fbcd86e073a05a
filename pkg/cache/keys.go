package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns the hex SHA-256 of data. The full 64-character digest is
// used wherever a key must be both filesystem-safe and collision-free:
// layout keys here, shard filenames in the file backend.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Keyer builds cache keys for the engine's cacheable artifacts.
// Implementations must be deterministic: the same inputs always produce
// the same key.
type Keyer interface {
	// LayoutKey keys a computed layout by the gallery fingerprint and
	// the geometry it was solved under.
	LayoutKey(fingerprint string, opts LayoutKeyOpts) string

	// ThumbKey keys an encoded thumbnail by image identity and target
	// size.
	ThumbKey(imageID string, width, height int) string
}

// LayoutKeyOpts carries the geometry component of a layout key. It
// mirrors the solver's parameter set: every field the policy reads is
// present, so two solves can only share a key when their output is
// identical. Float fields are pre-quantized by the caller (pixel values
// in tenths, fill rates in thousandths); fields the policy ignores stay
// zero.
type LayoutKeyOpts struct {
	Policy   string `json:"policy"`
	WidthQ   int32  `json:"width_q"`
	SpacingQ int32  `json:"spacing_q"`

	// Fixed-grid only.
	PerRow int `json:"per_row,omitempty"`

	// Justified only.
	HeightQ     int32 `json:"height_q,omitempty"`
	MinHeightQ  int32 `json:"min_height_q,omitempty"`
	MaxHeightQ  int32 `json:"max_height_q,omitempty"`
	MaxPerRow   int   `json:"max_per_row,omitempty"`
	FillLowQ    int32 `json:"fill_low_q,omitempty"`
	FillHighQ   int32 `json:"fill_high_q,omitempty"`
	FallbackQ   int32 `json:"fallback_q,omitempty"`
	FallbackMax int   `json:"fallback_max,omitempty"`
	Steps       int   `json:"steps,omitempty"`
}

// DefaultKeyer is the standard key builder.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() *DefaultKeyer { return &DefaultKeyer{} }

// LayoutKey builds a key of the form "layout:<hash>". The digest covers
// the gallery fingerprint and the full geometry struct, so any change to
// the image set or to a solver parameter lands on a fresh entry.
func (*DefaultKeyer) LayoutKey(fingerprint string, opts LayoutKeyOpts) string {
	payload, _ := json.Marshal(struct {
		Fingerprint string        `json:"fp"`
		Geometry    LayoutKeyOpts `json:"geo"`
	}{fingerprint, opts})
	return "layout:" + Hash(payload)
}

// ThumbKey builds a key of the form "thumb:<id>:<w>x<h>".
// Image IDs are validated upstream, so direct interpolation is safe.
func (*DefaultKeyer) ThumbKey(imageID string, width, height int) string {
	return fmt.Sprintf("thumb:%s:%dx%d", imageID, width, height)
}

// ScopedKeyer wraps another Keyer and prefixes every key, isolating
// galleries (or tenants) that share a backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a ScopedKeyer with the given prefix.
// A nil inner falls back to DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) *ScopedKeyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey returns the prefixed layout key.
func (s *ScopedKeyer) LayoutKey(fingerprint string, opts LayoutKeyOpts) string {
	return s.prefix + s.inner.LayoutKey(fingerprint, opts)
}

// ThumbKey returns the prefixed thumbnail key.
func (s *ScopedKeyer) ThumbKey(imageID string, width, height int) string {
	return s.prefix + s.inner.ThumbKey(imageID, width, height)
}

// Ensure implementations satisfy Keyer.
var (
	_ Keyer = (*DefaultKeyer)(nil)
	_ Keyer = (*ScopedKeyer)(nil)
)
