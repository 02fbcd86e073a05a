package gallery

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Layout - Unified Serialization Format
// =============================================================================

// Layout is the serialization format for a computed grid.
//
// It is what the CLI writes to layout.json, what the HTTP API returns, and
// what the cross-run layout cache stores. The row structure is exactly the
// solver output; Width and Spacing record the geometry the rows were solved
// against so a consumer can detect staleness.
type Layout struct {
	// Policy is the layout policy that produced the rows ("grid" or
	// "justified").
	Policy string `json:"policy"`

	// Width is the available width the rows were solved for.
	Width float64 `json:"width"`

	// Spacing is the gap between adjacent images within a row.
	Spacing float64 `json:"spacing"`

	// Rows is the computed partition, in input order.
	Rows []LayoutRow `json:"rows"`

	// TotalHeight is the stacked height of all rows plus spacing between
	// them. Convenience for renderers; always derivable from Rows.
	TotalHeight float64 `json:"total_height"`
}

// RowCount returns the number of rows in the layout.
func (l *Layout) RowCount() int { return len(l.Rows) }

// ImageCount returns the total number of images across all rows.
func (l *Layout) ImageCount() int {
	n := 0
	for _, r := range l.Rows {
		n += r.Count()
	}
	return n
}

// =============================================================================
// Gallery - Scanned Image Set
// =============================================================================

// Gallery is the serialization format for a scanned image set.
// Produced by the scan command, consumed by layout and thumbs.
type Gallery struct {
	Root   string        `json:"root"`
	Images []ImageRecord `json:"images"`
}

// Fingerprint returns a stable hash of the image set's identity and
// geometry. Two galleries with the same images in the same order produce the
// same fingerprint; any change to membership, order, or dimensions changes
// it. Used as the structural component of cross-run layout cache keys.
func (g *Gallery) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	for _, img := range g.Images {
		h.Write([]byte(img.ID))
		h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], uint64(img.Width))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(img.Height))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// =============================================================================
// Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Validates that row structure is internally consistent.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}

	for i, r := range l.Rows {
		if len(r.Images) != len(r.Sizes) {
			return Layout{}, fmt.Errorf("row %d: %d images but %d sizes", i, len(r.Images), len(r.Sizes))
		}
		if len(r.Images) == 0 {
			return Layout{}, fmt.Errorf("row %d: empty row", i)
		}
	}

	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(path string, l Layout) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}

// WriteGalleryFile writes a Gallery to a JSON file.
func WriteGalleryFile(path string, g Gallery) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal gallery: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadGalleryFile reads a Gallery from a JSON file.
func ReadGalleryFile(path string) (Gallery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Gallery{}, fmt.Errorf("read %s: %w", path, err)
	}
	var g Gallery
	if err := json.Unmarshal(data, &g); err != nil {
		return Gallery{}, fmt.Errorf("unmarshal gallery: %w", err)
	}
	return g, nil
}
