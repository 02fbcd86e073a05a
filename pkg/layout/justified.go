package layout

import (
	"github.com/photogridlab/photogrid/pkg/gallery"
)

// solveJustified consumes the image run row by row. Each row is the best
// candidate found by a bounded search, so the whole solve stays O(n): the
// per-row work is capped by HeightSteps × MaxImagesPerRow regardless of how
// many images the gallery holds.
func solveJustified(images []gallery.ImageRecord, p Params) []gallery.LayoutRow {
	var rows []gallery.LayoutRow
	for start := 0; start < len(images); {
		row := bestJustifiedRow(images[start:], p)
		rows = append(rows, row)
		start += row.Count()
	}
	return rows
}

// bestJustifiedRow picks the next row from the front of run.
//
// The search has tiers, each strictly more permissive than the last:
//
//  1. Sweep candidate heights across the band around TargetRowHeight and
//     candidate counts 1..MaxImagesPerRow; keep the highest fill rate
//     inside [FillLow, FillHigh].
//  2. If nothing landed in the band, retry at TargetRowHeight only with
//     the smaller FallbackMaxImages cap, accepting the highest fill that
//     clears FallbackFill.
//  3. Failing that, take the best fill seen across both searches,
//     however low. The sweep may beat the fallback pass here: a taller
//     in-band height often fills more than the target height does.
//  4. If even a one-image row overflows everywhere, emit a single image
//     shrunk to fit, with MinRowHeight as a hard floor.
func bestJustifiedRow(run []gallery.ImageRecord, p Params) gallery.LayoutRow {
	// Tier 1: height-band sweep.
	lo := p.TargetRowHeight * 0.8
	hi := p.TargetRowHeight * 1.2
	if lo < p.MinRowHeight {
		lo = p.MinRowHeight
	}
	if hi > p.MaxRowHeight {
		hi = p.MaxRowHeight
	}
	if hi < lo {
		hi = lo
	}

	maxK := p.MaxImagesPerRow
	if maxK > len(run) {
		maxK = len(run)
	}

	bestFill := 0.0
	bestK := 0
	bestH := 0.0
	seenFill := 0.0 // best candidate anywhere, band or not
	seenK := 0
	seenH := 0.0
	for s := 0; s < p.HeightSteps; s++ {
		h := lo + (hi-lo)*float64(s)/float64(p.HeightSteps-1)

		width := 0.0
		for k := 1; k <= maxK; k++ {
			width += h * run[k-1].AspectRatio()
			fill := (width + p.Spacing*float64(k-1)) / p.AvailableWidth
			if fill > p.FillHigh {
				// Wider counts only overflow further at this height.
				break
			}
			if fill > seenFill {
				seenFill = fill
				seenK = k
				seenH = h
			}
			if fill >= p.FillLow && fill > bestFill {
				bestFill = fill
				bestK = k
				bestH = h
			}
		}
	}
	if bestK > 0 {
		return fitRow(justifyRow(run[:bestK], bestH, p.Spacing), p)
	}

	// Tier 2: target height only, smaller cap, gated on FallbackFill.
	h := p.TargetRowHeight
	maxK = p.FallbackMaxImages
	if maxK > len(run) {
		maxK = len(run)
	}

	fbK := 0
	fbFill := 0.0
	width := 0.0
	for k := 1; k <= maxK; k++ {
		width += h * run[k-1].AspectRatio()
		fill := (width + p.Spacing*float64(k-1)) / p.AvailableWidth
		if fill > 1.0 {
			break
		}
		if fill > seenFill {
			seenFill = fill
			seenK = k
			seenH = h
		}
		if fill >= p.FallbackFill && fill > fbFill {
			fbFill = fill
			fbK = k
		}
	}
	if fbK > 0 {
		return fitRow(justifyRow(run[:fbK], h, p.Spacing), p)
	}

	// Tier 3: nothing cleared a threshold; a sparse row beats no row.
	if seenK > 0 {
		return fitRow(justifyRow(run[:seenK], seenH, p.Spacing), p)
	}

	// Tier 4: a lone image too wide even at every candidate height.
	return singleImageRow(run[:1], p)
}

// singleImageRow shrinks one image to fit the available width by height,
// honoring the MinRowHeight floor. Below the floor the row is allowed to
// overflow: a minimum visual size beats an exact fit.
func singleImageRow(run []gallery.ImageRecord, p Params) gallery.LayoutRow {
	ar := run[0].AspectRatio()
	h := p.TargetRowHeight
	if h*ar > p.AvailableWidth {
		h = p.AvailableWidth / ar
		if h < p.MinRowHeight {
			h = p.MinRowHeight
		}
	}
	return justifyRow(run, h, p.Spacing)
}

// fitRow rescales a row that overflows the available width (float rounding
// can push a justified row slightly past it). The scale is applied to the
// image sizes only; spacing is fixed, so the scale factor is computed
// against the width left after spacing. Rows whose height would drop below
// MinRowHeight are returned unscaled, overflow and all.
func fitRow(row gallery.LayoutRow, p Params) gallery.LayoutRow {
	if row.TotalWidth <= p.AvailableWidth {
		return row
	}

	spacing := p.Spacing * float64(row.Count()-1)
	imgWidth := row.TotalWidth - spacing
	target := p.AvailableWidth - spacing
	if imgWidth <= 0 || target <= 0 {
		return row
	}

	scale := target / imgWidth
	if row.Height*scale < p.MinRowHeight {
		return row
	}

	for i := range row.Sizes {
		row.Sizes[i].Width *= scale
		row.Sizes[i].Height *= scale
	}
	row.Height *= scale
	row.TotalWidth = target + spacing
	return row
}
