package compose

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Composite draws fg onto bg following g and returns a new image the size of bg.
//
// Stages, each producing a new image:
//  1. Resample fg to g.Target (Lanczos)
//  2. Rotate it by g.Rotation onto a transparent g.Rotated canvas (bicubic)
//  3. Multiply its alpha by g.Alpha
//  4. Place it at g.Offset on a transparent layer the size of bg, clipping overflow
//  5. Flatten the layer over bg
//
// Composite fails with ErrUnsupportedFormat when either image is nil or empty,
// and with ErrInvalidParams when g has an empty target or rotated size.
func Composite(bg, fg image.Image, g Geometry) (*image.NRGBA, error) {
	if g.Target.empty() || g.Rotated.empty() {
		return nil, fmt.Errorf("%w: geometry target %v rotated %v", ErrInvalidParams, g.Target, g.Rotated)
	}
	base, err := Normalize(bg)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	design, err := Normalize(fg)
	if err != nil {
		return nil, fmt.Errorf("design: %w", err)
	}

	rotated := Rotate(Resample(design, g.Target), g.Rotation, g.Rotated)
	return finish(base, rotated, g), nil
}

// finish runs the opacity, place and flatten stages.
func finish(base, rotated *image.NRGBA, g Geometry) *image.NRGBA {
	faded := ApplyOpacity(rotated, g.Alpha)
	layer := Place(SizeOf(base), faded, g.Offset)
	return Flatten(base, layer)
}

// Resample scales img to exactly size using a Lanczos filter.
func Resample(img *image.NRGBA, size Size) *image.NRGBA {
	return imaging.Resize(img, size.Width, size.Height, imaging.Lanczos)
}

// Rotate turns img counter-clockwise by degrees about its center and centers
// the result on a transparent canvas of exactly size. Right angles are exact
// pixel permutations; other angles are resampled with Catmull-Rom.
func Rotate(img *image.NRGBA, degrees float64, size Size) *image.NRGBA {
	angle := normalizeAngle(degrees)
	switch angle {
	case 0:
		return fitCanvas(imaging.Clone(img), size)
	case 90:
		return fitCanvas(imaging.Rotate90(img), size)
	case -90:
		return fitCanvas(imaging.Rotate270(img), size)
	case 180:
		return fitCanvas(imaging.Rotate180(img), size)
	}

	src := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	sin, cos := math.Sincos(angle * math.Pi / 180)
	scx, scy := float64(src.Min.X)+float64(src.Dx())/2, float64(src.Min.Y)+float64(src.Dy())/2
	dcx, dcy := float64(size.Width)/2, float64(size.Height)/2

	// Source to destination: translate to origin, rotate, translate to center.
	s2d := f64.Aff3{
		cos, sin, dcx - cos*scx - sin*scy,
		-sin, cos, dcy + sin*scx - cos*scy,
	}
	draw.CatmullRom.Transform(dst, s2d, img, src, draw.Src, nil)
	return imaging.Clone(dst)
}

// fitCanvas centers img on a transparent canvas of size when they differ.
func fitCanvas(img *image.NRGBA, size Size) *image.NRGBA {
	if SizeOf(img) == size {
		return img
	}
	return imaging.PasteCenter(imaging.New(size.Width, size.Height, color.NRGBA{}), img)
}

// ApplyOpacity returns a copy of img with every alpha value multiplied by
// alpha and rounded to 8 bits. alpha is clamped to [0, 1]; at 1 the copy is
// pixel-identical to img.
func ApplyOpacity(img *image.NRGBA, alpha float64) *image.NRGBA {
	if alpha >= 1 {
		return imaging.Clone(img)
	}
	alpha = math.Max(alpha, 0)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.A = uint8(math.Round(float64(c.A) * alpha))
		return c
	})
}

// Place pastes img at offset on a transparent layer of canvas size. Any part
// of img outside the layer is discarded.
func Place(canvas Size, img *image.NRGBA, offset image.Point) *image.NRGBA {
	layer := imaging.New(canvas.Width, canvas.Height, color.NRGBA{})
	return imaging.Paste(layer, img, offset)
}

// Flatten composites layer over bg with the Porter-Duff "over" operator.
// The result has bg's dimensions.
func Flatten(bg, layer *image.NRGBA) *image.NRGBA {
	b := bg.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), bg, b.Min, draw.Src)
	draw.Draw(out, out.Bounds(), layer, layer.Bounds().Min, draw.Over)
	return imaging.Clone(out)
}
