package imaging

import (
	"encoding/base64"
	"fmt"
	"image"
	"math"

	dimaging "github.com/disintegration/imaging"

	"github.com/ironsheep/tattoo-studio/internal/compose"
)

// CropResult contains the cropped image data
type CropResult struct {
	X1          int    `json:"x1"`
	Y1          int    `json:"y1"`
	X2          int    `json:"x2"`
	Y2          int    `json:"y2"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts a rectangular region from an image and optionally scales it.
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	if scale <= 0 || scale > 8 {
		return nil, fmt.Errorf("scale %v outside (0, 8]", scale)
	}

	cropped := dimaging.Crop(img, image.Rect(x1, y1, x2, y2))

	if scale != 1.0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = dimaging.Resize(cropped, newWidth, newHeight, dimaging.Lanczos)
	}

	data, err := compose.EncodePNG(cropped)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		X1:          x1,
		Y1:          y1,
		X2:          x2,
		Y2:          y2,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

// ZoomPlacement crops a composite around the placed design for a close-up.
//
// The crop is the design's rotated bounding box grown on every side by
// marginPercent of its longer edge, clipped to the composite.
func ZoomPlacement(composite image.Image, g compose.Geometry, marginPercent, scale float64) (*CropResult, error) {
	if math.IsNaN(marginPercent) || marginPercent < 0 || marginPercent > 100 {
		return nil, fmt.Errorf("margin %v%% outside [0, 100]", marginPercent)
	}
	if g.Rotated.Width <= 0 || g.Rotated.Height <= 0 {
		return nil, fmt.Errorf("%w: empty placement", compose.ErrInvalidParams)
	}

	margin := int(math.Round(float64(max(g.Rotated.Width, g.Rotated.Height)) * marginPercent / 100))
	box := image.Rect(g.Offset.X, g.Offset.Y, g.Offset.X+g.Rotated.Width, g.Offset.Y+g.Rotated.Height).
		Inset(-margin).
		Intersect(composite.Bounds())
	if box.Empty() {
		return nil, fmt.Errorf("placement lies outside the composite")
	}

	return Crop(composite, box.Min.X, box.Min.Y, box.Max.X, box.Max.Y, scale)
}
