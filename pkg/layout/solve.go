package layout

import (
	"github.com/photogridlab/photogrid/pkg/gallery"
)

// Solve partitions images into layout rows under the given policy.
//
// Solve is a total function over well-formed records: it never returns an
// error and never panics. An empty input yields an empty result. Invalid
// geometry in params is sanitized first; a non-positive available width
// degrades to a single-column layout instead of crashing the caller.
//
// The input slice is read-only; rows reference sub-slices of it, so the
// caller must not mutate the records afterwards. Calling Solve twice with
// identical inputs produces identical output.
func Solve(images []gallery.ImageRecord, policy Policy, params Params) []gallery.LayoutRow {
	if len(images) == 0 {
		return nil
	}

	p := params.sanitized()
	if p.AvailableWidth <= 0 {
		return solveSingleColumn(images, p)
	}

	switch policy {
	case PolicyFixedGrid:
		return solveFixedGrid(images, p)
	default:
		return solveJustified(images, p)
	}
}

// Build runs Solve and wraps the rows in a serializable Layout, computing
// the stacked total height.
func Build(images []gallery.ImageRecord, policy Policy, params Params) gallery.Layout {
	return Assemble(Solve(images, policy, params), policy, params)
}

// Assemble wraps already-solved rows in a Layout, computing the total
// stacked height. It exists so callers holding cached rows can build a
// Layout without re-solving.
func Assemble(rows []gallery.LayoutRow, policy Policy, params Params) gallery.Layout {
	p := params.sanitized()

	height := 0.0
	for _, r := range rows {
		height += r.Height
	}
	if len(rows) > 1 {
		height += p.Spacing * float64(len(rows)-1)
	}

	kind := policy
	if !kind.Valid() {
		kind = PolicyJustified
	}

	return gallery.Layout{
		Policy:      string(kind),
		Width:       p.AvailableWidth,
		Spacing:     p.Spacing,
		Rows:        rows,
		TotalHeight: height,
	}
}

// justifyRow sizes a run of images at a common height, each image's width
// following its own aspect ratio, and returns the resulting row.
func justifyRow(run []gallery.ImageRecord, height, spacing float64) gallery.LayoutRow {
	sizes := make([]gallery.ImageSize, len(run))
	total := spacing * float64(len(run)-1)
	for i, img := range run {
		w := height * img.AspectRatio()
		sizes[i] = gallery.ImageSize{Width: w, Height: height}
		total += w
	}
	return gallery.LayoutRow{
		Images:     run,
		Sizes:      sizes,
		TotalWidth: total,
		Height:     height,
	}
}

// solveSingleColumn is the degenerate layout used when the available width
// is unusable: one image per row at the minimum row height. It keeps the
// coverage invariant (every image appears exactly once, in order) so the
// caller's rendering loop still works.
func solveSingleColumn(images []gallery.ImageRecord, p Params) []gallery.LayoutRow {
	rows := make([]gallery.LayoutRow, len(images))
	for i := range images {
		rows[i] = justifyRow(images[i:i+1], p.MinRowHeight, p.Spacing)
	}
	return rows
}
