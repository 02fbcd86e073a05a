package gallery

// ImageSize is the displayed size of a single image within a row.
type ImageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LayoutRow is one horizontal band of the computed grid.
//
// Invariants maintained by the solver:
//   - len(Sizes) == len(Images), matched 1:1 by index
//   - TotalWidth == sum(Sizes[i].Width) + spacing*(len-1) within tolerance
//   - every Sizes[i].Height == Height (rows are uniform-height)
type LayoutRow struct {
	Images     []ImageRecord `json:"images"`
	Sizes      []ImageSize   `json:"sizes"`
	TotalWidth float64       `json:"total_width"`
	Height     float64       `json:"height"`
}

// Count returns the number of images in the row.
func (r LayoutRow) Count() int { return len(r.Images) }

// FillRate returns the ratio of the row's total width to availableWidth.
// Returns 0 for non-positive availableWidth.
func (r LayoutRow) FillRate(availableWidth float64) float64 {
	if availableWidth <= 0 {
		return 0
	}
	return r.TotalWidth / availableWidth
}

// Consistent reports whether the row's per-image sizes line up with its
// image list and total width, within tol. Spacing is the gap the solver
// placed between adjacent images.
func (r LayoutRow) Consistent(spacing, tol float64) bool {
	if len(r.Images) != len(r.Sizes) {
		return false
	}
	if len(r.Sizes) == 0 {
		return r.TotalWidth == 0
	}
	sum := spacing * float64(len(r.Sizes)-1)
	for _, s := range r.Sizes {
		sum += s.Width
	}
	diff := sum - r.TotalWidth
	if diff < 0 {
		diff = -diff
	}
	return diff <= tol
}
