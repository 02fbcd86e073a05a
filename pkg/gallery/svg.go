package gallery

import (
	"crypto/sha256"
	"fmt"
	"io"
)

// WriteSVG renders a Layout as a flat SVG contact sheet: one rectangle per
// image, positioned exactly as the solver sized it, with the image ID as a
// tooltip. Useful for eyeballing fill rates and row bands without a real
// rendering layer.
//
// Rectangle colors are derived from the image ID so re-renders are stable.
func WriteSVG(w io.Writer, l Layout) error {
	if _, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		l.Width, l.TotalHeight, l.Width, l.TotalHeight); err != nil {
		return err
	}

	y := 0.0
	for _, row := range l.Rows {
		x := 0.0
		for i, img := range row.Images {
			size := row.Sizes[i]
			fill := colorFor(img.ID)
			if _, err := fmt.Fprintf(w,
				`  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s</title></rect>`+"\n",
				x, y, size.Width, size.Height, fill, escapeXML(img.ID)); err != nil {
				return err
			}
			x += size.Width + l.Spacing
		}
		y += row.Height + l.Spacing
	}

	_, err := io.WriteString(w, "</svg>\n")
	return err
}

// colorFor maps an image ID to a stable mid-brightness color.
func colorFor(id string) string {
	sum := sha256.Sum256([]byte(id))
	// Roll channels into 64..191 to stay readable on white.
	r := 64 + int(sum[0])%128
	g := 64 + int(sum[1])%128
	b := 64 + int(sum[2])%128
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// escapeXML escapes the characters that matter inside SVG text content.
func escapeXML(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		case '"':
			out = append(out, "&quot;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
