package layout

import (
	"github.com/photogridlab/photogrid/pkg/gallery"
)

// solveFixedGrid partitions images into runs of ImagesPerRow and sizes each
// run so its justified width matches the available width exactly. The final
// partial run gets the same treatment with its own count, so a short last
// row still spans the full width.
func solveFixedGrid(images []gallery.ImageRecord, p Params) []gallery.LayoutRow {
	n := p.ImagesPerRow
	rows := make([]gallery.LayoutRow, 0, (len(images)+n-1)/n)

	for start := 0; start < len(images); start += n {
		end := start + n
		if end > len(images) {
			end = len(images)
		}
		run := images[start:end]
		rows = append(rows, justifyRow(run, exactRowHeight(run, p), p.Spacing))
	}

	return rows
}

// exactRowHeight returns the uniform height at which the run's justified
// width equals the available width: h = (available - spacing·(n-1)) / Σar.
func exactRowHeight(run []gallery.ImageRecord, p Params) float64 {
	arSum := 0.0
	for _, img := range run {
		arSum += img.AspectRatio()
	}

	inner := p.AvailableWidth - p.Spacing*float64(len(run)-1)
	if inner < 1 {
		// Spacing alone exceeds the frame; size against a unit width so
		// geometry stays positive.
		inner = 1
	}
	return inner / arSum
}
