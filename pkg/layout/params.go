package layout

// Policy selects the row partitioning strategy.
//
// The two policies are deliberately a tagged constant plus one switch in
// Solve rather than an interface: the set is closed, and a caller toggling
// between them at runtime (a settings menu, a query parameter) only carries
// a string around.
type Policy string

const (
	// PolicyFixedGrid partitions images into runs of a fixed count per
	// row and sizes each row to span the available width exactly.
	PolicyFixedGrid Policy = "grid"

	// PolicyJustified searches for the variable-count partition whose
	// rows best fill the available width at heights near the target.
	PolicyJustified Policy = "justified"
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	return p == PolicyFixedGrid || p == PolicyJustified
}

// Default values for Params. A caller usually starts from
// DefaultParams(width) and overrides what it cares about.
const (
	DefaultTargetRowHeight = 220.0
	DefaultMinRowHeight    = 110.0
	DefaultMaxRowHeight    = 330.0
	DefaultSpacing         = 10.0
	DefaultImagesPerRow    = 6
	DefaultMaxImagesPerRow = 10
	DefaultFillLow         = 0.85
	DefaultFillHigh        = 1.0
	DefaultFallbackFill    = 0.75
	DefaultFallbackMax     = 6
	DefaultHeightSteps     = 9
)

// Params holds the full geometry configuration for a solve.
//
// The fill-rate thresholds are configuration rather than constants: the
// acceptable band is a visual judgment call, and deployments tune it.
type Params struct {
	// AvailableWidth is the viewport width rows should fill.
	AvailableWidth float64

	// TargetRowHeight is the height the justified policy aims for.
	TargetRowHeight float64

	// MinRowHeight is a hard floor: no scaling step shrinks a row below
	// it, even at the cost of a row overflowing the available width.
	MinRowHeight float64

	// MaxRowHeight bounds the candidate height sweep from above.
	MaxRowHeight float64

	// Spacing is the horizontal gap between adjacent images in a row.
	Spacing float64

	// ImagesPerRow is the fixed run length for PolicyFixedGrid.
	ImagesPerRow int

	// MaxImagesPerRow caps the per-row search for PolicyJustified.
	MaxImagesPerRow int

	// FillLow and FillHigh bound the acceptable fill-rate band for the
	// primary justified search pass.
	FillLow  float64
	FillHigh float64

	// FallbackFill is the minimum fill rate the second pass accepts.
	FallbackFill float64

	// FallbackMaxImages caps the second search pass.
	FallbackMaxImages int

	// HeightSteps is the number of candidate heights swept across the
	// band around TargetRowHeight.
	HeightSteps int
}

// DefaultParams returns the standard configuration for the given width.
func DefaultParams(availableWidth float64) Params {
	return Params{
		AvailableWidth:    availableWidth,
		TargetRowHeight:   DefaultTargetRowHeight,
		MinRowHeight:      DefaultMinRowHeight,
		MaxRowHeight:      DefaultMaxRowHeight,
		Spacing:           DefaultSpacing,
		ImagesPerRow:      DefaultImagesPerRow,
		MaxImagesPerRow:   DefaultMaxImagesPerRow,
		FillLow:           DefaultFillLow,
		FillHigh:          DefaultFillHigh,
		FallbackFill:      DefaultFallbackFill,
		FallbackMaxImages: DefaultFallbackMax,
		HeightSteps:       DefaultHeightSteps,
	}
}

// sanitized returns a copy of p with every field forced into usable range.
// Solve never fails on bad geometry; it solves with the closest sane
// configuration instead. AvailableWidth is left as-is: Solve handles
// non-positive widths with the degenerate single-column path.
func (p Params) sanitized() Params {
	if p.TargetRowHeight <= 0 {
		p.TargetRowHeight = DefaultTargetRowHeight
	}
	if p.MinRowHeight <= 0 || p.MinRowHeight > p.TargetRowHeight {
		p.MinRowHeight = p.TargetRowHeight * 0.5
	}
	if p.MaxRowHeight < p.TargetRowHeight {
		p.MaxRowHeight = p.TargetRowHeight * 1.5
	}
	if p.Spacing < 0 {
		p.Spacing = 0
	}
	if p.ImagesPerRow <= 0 {
		p.ImagesPerRow = DefaultImagesPerRow
	}
	if p.MaxImagesPerRow <= 0 {
		p.MaxImagesPerRow = DefaultMaxImagesPerRow
	}
	if p.FillLow <= 0 || p.FillLow > 1 {
		p.FillLow = DefaultFillLow
	}
	if p.FillHigh <= p.FillLow || p.FillHigh > 1 {
		p.FillHigh = DefaultFillHigh
	}
	if p.FallbackFill <= 0 || p.FallbackFill > p.FillLow {
		p.FallbackFill = DefaultFallbackFill
		if p.FallbackFill > p.FillLow {
			p.FallbackFill = p.FillLow
		}
	}
	if p.FallbackMaxImages <= 0 {
		p.FallbackMaxImages = DefaultFallbackMax
	}
	if p.FallbackMaxImages > p.MaxImagesPerRow {
		p.FallbackMaxImages = p.MaxImagesPerRow
	}
	if p.HeightSteps < 2 {
		p.HeightSteps = DefaultHeightSteps
	}
	return p
}
