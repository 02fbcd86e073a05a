package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/photogridlab/photogrid/pkg/gallery"
)

// imagesWithAspects builds records with the given aspect ratios at a
// nominal 1000px height.
func imagesWithAspects(ars ...float64) []gallery.ImageRecord {
	recs := make([]gallery.ImageRecord, len(ars))
	for i, ar := range ars {
		recs[i] = gallery.ImageRecord{
			ID:     fmt.Sprintf("img-%02d", i),
			Width:  ar * 1000,
			Height: 1000,
		}
	}
	return recs
}

// assertCoverage checks that rows contain exactly the input images, in
// order, with no drops or duplicates.
func assertCoverage(t *testing.T, images []gallery.ImageRecord, rows []gallery.LayoutRow) {
	t.Helper()
	i := 0
	for ri, row := range rows {
		if len(row.Images) != len(row.Sizes) {
			t.Fatalf("row %d: %d images but %d sizes", ri, len(row.Images), len(row.Sizes))
		}
		for _, img := range row.Images {
			if i >= len(images) {
				t.Fatalf("row %d contains extra image %q", ri, img.ID)
			}
			if img.ID != images[i].ID {
				t.Fatalf("position %d: got %q, want %q", i, img.ID, images[i].ID)
			}
			i++
		}
	}
	if i != len(images) {
		t.Fatalf("rows cover %d images, want %d", i, len(images))
	}
}

func TestSolveEmptyInput(t *testing.T) {
	for _, policy := range []Policy{PolicyFixedGrid, PolicyJustified} {
		rows := Solve(nil, policy, DefaultParams(800))
		if len(rows) != 0 {
			t.Errorf("%s: empty input should yield no rows, got %d", policy, len(rows))
		}
	}
}

func TestSolveCoverage(t *testing.T) {
	images := imagesWithAspects(1.5, 0.7, 1.0, 2.3, 0.5, 1.1, 1.8, 0.9, 3.2, 1.0, 0.66, 1.33)

	for _, policy := range []Policy{PolicyFixedGrid, PolicyJustified} {
		t.Run(string(policy), func(t *testing.T) {
			rows := Solve(images, policy, DefaultParams(900))
			assertCoverage(t, images, rows)
		})
	}
}

func TestSolveDeterminism(t *testing.T) {
	images := imagesWithAspects(1.2, 0.8, 1.6, 1.0, 2.1, 0.6, 1.4)
	p := DefaultParams(750)

	for _, policy := range []Policy{PolicyFixedGrid, PolicyJustified} {
		a := Solve(images, policy, p)
		b := Solve(images, policy, p)
		if len(a) != len(b) {
			t.Fatalf("%s: row counts differ: %d vs %d", policy, len(a), len(b))
		}
		for i := range a {
			if a[i].Height != b[i].Height || a[i].TotalWidth != b[i].TotalWidth || a[i].Count() != b[i].Count() {
				t.Errorf("%s: row %d differs between identical solves", policy, i)
			}
		}
	}
}

func TestSolveNonPositiveWidthDegrades(t *testing.T) {
	images := imagesWithAspects(1.0, 1.5, 0.8)

	for _, width := range []float64{0, -100} {
		rows := Solve(images, PolicyJustified, DefaultParams(width))
		assertCoverage(t, images, rows)
		for i, row := range rows {
			if row.Count() != 1 {
				t.Errorf("width %v: degenerate layout should be single-column, row %d has %d images", width, i, row.Count())
			}
			if row.Height <= 0 {
				t.Errorf("width %v: row %d height %v, want positive", width, i, row.Height)
			}
		}
	}
}

func TestSolveGarbageDimensionsNeverNaN(t *testing.T) {
	images := []gallery.ImageRecord{
		{ID: "ok", Width: 1200, Height: 800},
		{ID: "zero", Width: 0, Height: 0},
		{ID: "negative", Width: -5, Height: 10},
		{ID: "nan", Width: math.NaN(), Height: 100},
	}

	for _, policy := range []Policy{PolicyFixedGrid, PolicyJustified} {
		rows := Solve(images, policy, DefaultParams(600))
		assertCoverage(t, images, rows)
		for ri, row := range rows {
			if math.IsNaN(row.Height) || math.IsInf(row.Height, 0) {
				t.Errorf("%s: row %d height is %v", policy, ri, row.Height)
			}
			for si, s := range row.Sizes {
				if math.IsNaN(s.Width) || math.IsInf(s.Width, 0) || s.Width <= 0 {
					t.Errorf("%s: row %d size %d width is %v", policy, ri, si, s.Width)
				}
			}
		}
	}
}

func TestSolveIdempotentRelayout(t *testing.T) {
	// A no-op width change must reproduce the same rows.
	images := imagesWithAspects(1.0, 1.3, 0.75, 1.9, 1.1)
	p := DefaultParams(820)

	first := Solve(images, PolicyJustified, p)
	second := Solve(images, PolicyJustified, p)

	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].TotalWidth != second[i].TotalWidth {
			t.Errorf("row %d total width changed on re-layout", i)
		}
	}
}

func TestBuildTotalHeight(t *testing.T) {
	images := imagesWithAspects(1.0, 1.0, 1.0, 1.0, 1.0, 1.0)
	p := DefaultParams(600)
	p.ImagesPerRow = 3

	l := Build(images, PolicyFixedGrid, p)

	if l.Policy != string(PolicyFixedGrid) {
		t.Errorf("Policy = %q", l.Policy)
	}
	if l.RowCount() != 2 {
		t.Fatalf("RowCount = %d, want 2", l.RowCount())
	}
	want := l.Rows[0].Height + l.Rows[1].Height + p.Spacing
	if math.Abs(l.TotalHeight-want) > 1e-9 {
		t.Errorf("TotalHeight = %v, want %v", l.TotalHeight, want)
	}
}

func TestParamsSanitized(t *testing.T) {
	p := Params{
		AvailableWidth:  800,
		TargetRowHeight: -10,
		Spacing:         -5,
		FillLow:         2.0,
	}
	s := p.sanitized()

	if s.TargetRowHeight != DefaultTargetRowHeight {
		t.Errorf("TargetRowHeight = %v", s.TargetRowHeight)
	}
	if s.Spacing != 0 {
		t.Errorf("Spacing = %v, want 0", s.Spacing)
	}
	if s.FillLow != DefaultFillLow {
		t.Errorf("FillLow = %v", s.FillLow)
	}
	if s.MinRowHeight <= 0 || s.MinRowHeight > s.TargetRowHeight {
		t.Errorf("MinRowHeight = %v out of range", s.MinRowHeight)
	}
	if s.MaxRowHeight < s.TargetRowHeight {
		t.Errorf("MaxRowHeight = %v below target", s.MaxRowHeight)
	}
	if s.FallbackMaxImages > s.MaxImagesPerRow {
		t.Errorf("FallbackMaxImages = %v exceeds search cap", s.FallbackMaxImages)
	}
}
