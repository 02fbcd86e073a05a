package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/gif"  // register gif for image.DecodeConfig
	_ "image/jpeg" // register jpeg
	_ "image/png"  // register png
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/webp" // register webp

	"github.com/photogridlab/photogrid/pkg/errors"
	"github.com/photogridlab/photogrid/pkg/gallery"
	"github.com/photogridlab/photogrid/pkg/observability"
)

// imageExtensions lists the file extensions the scanner treats as images.
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// Scanner walks a directory tree and builds a gallery from the image
// files it finds. Dimensions come from the image headers only; no pixels
// are decoded during a scan.
type Scanner struct {
	Logger *log.Logger
}

// NewScanner creates a scanner. A nil logger falls back to log.Default().
func NewScanner(logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{Logger: logger}
}

// Scan walks root and returns a gallery of every image file underneath
// it, ordered by path. Hidden directories are skipped. Files whose
// headers cannot be read still appear in the gallery with zero
// dimensions; the layout engine treats those as square.
func (s *Scanner) Scan(ctx context.Context, root string) (*gallery.Gallery, error) {
	if err := errors.ValidatePath(root); err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "stat %s", root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s is not a directory", root)
	}

	start := time.Now()
	observability.Pipeline().OnScanStart(ctx, root)

	var records []gallery.ImageRecord
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cErr := ctx.Err(); cErr != nil {
			return cErr
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := imageExtensions[ext]; !ok {
			return nil
		}

		rel, rErr := filepath.Rel(root, path)
		if rErr != nil {
			rel = d.Name()
		}
		w, h := s.dimensions(path)
		records = append(records, gallery.ImageRecord{
			ID:     ImageID(rel),
			Path:   path,
			Width:  w,
			Height: h,
		})
		return nil
	})
	if walkErr != nil {
		observability.Pipeline().OnScanComplete(ctx, root, 0, time.Since(start), walkErr)
		return nil, errors.Wrap(errors.ErrCodeInternal, walkErr, "scan %s", root)
	}

	// WalkDir visits lexically, but keep the ordering explicit so layouts
	// stay reproducible across filesystems.
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })

	observability.Pipeline().OnScanComplete(ctx, root, len(records), time.Since(start), nil)
	s.Logger.Debug("scanned gallery", "root", root, "images", len(records), "duration", time.Since(start))

	return &gallery.Gallery{Root: root, Images: records}, nil
}

// dimensions reads the image header for its pixel size. Unreadable or
// unparseable files report 0x0 rather than failing the scan.
func (s *Scanner) dimensions(path string) (float64, float64) {
	f, err := os.Open(path)
	if err != nil {
		s.Logger.Warn("unreadable image", "path", path, "err", err)
		return 0, 0
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		s.Logger.Warn("unparseable image header", "path", path, "err", err)
		return 0, 0
	}
	return float64(cfg.Width), float64(cfg.Height)
}

// ImageID derives a stable identifier from a path relative to the
// gallery root. The same file keeps its identity across scans, which is
// what lets caches survive a rescan.
func ImageID(rel string) string {
	sum := sha256.Sum256([]byte(filepath.ToSlash(rel)))
	return hex.EncodeToString(sum[:8])
}
