package thumb

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register webp for image.Decode

	"github.com/photogridlab/photogrid/pkg/errors"
	"github.com/photogridlab/photogrid/pkg/gallery"
)

// Decoder turns an image record into a bitmap scaled to fit a target box.
// Implementations must be safe for concurrent use; the loader calls one
// decoder from every worker.
type Decoder interface {
	Decode(ctx context.Context, rec gallery.ImageRecord, width, height int) (image.Image, error)
}

// ImagingDecoder decodes from the local filesystem and downscales with
// Lanczos resampling, honoring EXIF orientation.
type ImagingDecoder struct{}

var _ Decoder = (*ImagingDecoder)(nil)

func (ImagingDecoder) Decode(ctx context.Context, rec gallery.ImageRecord, width, height int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := errors.ValidateThumbSize(width, height); err != nil {
		return nil, err
	}

	img, err := imaging.Open(rec.Path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecodeFailed, err, "decode %s", rec.Path)
	}

	// Fit preserves aspect ratio and never upscales past the source.
	return imaging.Fit(img, width, height, imaging.Lanczos), nil
}
