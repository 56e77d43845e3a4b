package compose

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Normalize returns an owned RGBA copy of img with its origin at (0,0).
// Images without an alpha channel come back fully opaque.
func Normalize(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrUnsupportedFormat)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image %v", ErrUnsupportedFormat, img.Bounds())
	}
	return imaging.Clone(img), nil
}

// Decode decodes PNG, JPEG, GIF, BMP, TIFF or WebP bytes into canonical RGBA.
// EXIF orientation is applied, so phone photos come out upright.
func Decode(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no image data", ErrUnsupportedFormat)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return Normalize(img)
}

// EncodePNG encodes img losslessly.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
