package gallery

import (
	"math"
	"testing"
)

func TestAspectRatio(t *testing.T) {
	tests := []struct {
		name string
		rec  ImageRecord
		want float64
	}{
		{
			name: "landscape",
			rec:  ImageRecord{Width: 3000, Height: 2000},
			want: 1.5,
		},
		{
			name: "portrait",
			rec:  ImageRecord{Width: 2000, Height: 4000},
			want: 0.5,
		},
		{
			name: "square",
			rec:  ImageRecord{Width: 800, Height: 800},
			want: 1.0,
		},
		{
			name: "zero width falls back to square",
			rec:  ImageRecord{Width: 0, Height: 600},
			want: 1.0,
		},
		{
			name: "zero height falls back to square",
			rec:  ImageRecord{Width: 600, Height: 0},
			want: 1.0,
		},
		{
			name: "negative dimensions fall back to square",
			rec:  ImageRecord{Width: -100, Height: -100},
			want: 1.0,
		},
		{
			name: "NaN falls back to square",
			rec:  ImageRecord{Width: math.NaN(), Height: 100},
			want: 1.0,
		},
		{
			name: "infinite width falls back to square",
			rec:  ImageRecord{Width: math.Inf(1), Height: 100},
			want: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.AspectRatio(); got != tt.want {
				t.Errorf("AspectRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAspectRatioNeverZero(t *testing.T) {
	// Extremely narrow images must still return a positive, finite ratio.
	rec := ImageRecord{Width: 1e-300, Height: 1e300}
	got := rec.AspectRatio()
	if got <= 0 || math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("AspectRatio() = %v, want positive finite", got)
	}
}
