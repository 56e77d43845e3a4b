package compose

import (
	"fmt"
	"image"
	"math"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SizeOf returns the dimensions of img.
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{Width: b.Dx(), Height: b.Dy()}
}

func (s Size) empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Geometry is the pixel-space plan for one render, derived from Params.
type Geometry struct {
	// Target is the design size after resampling. Aspect ratio is kept.
	Target Size `json:"target"`

	// Rotated is the axis-aligned bounding box of Target after rotation.
	Rotated Size `json:"rotated"`

	// Offset is the top-left corner of the rotated box on the background.
	// It can be negative when the rotated box is larger than the background.
	Offset image.Point `json:"offset"`

	// Rotation is the counter-clockwise angle in degrees, wrapped to (-180, 180].
	Rotation float64 `json:"rotation"`

	// Alpha multiplies the design's alpha channel, 0.2-1.0.
	Alpha float64 `json:"alpha"`
}

// Resolve converts the user controls into concrete render geometry.
//
// The design's longer edge becomes floor(min(bg.Width, bg.Height) * size / 100),
// but at least 1, and the shorter edge follows the native aspect ratio. The
// rotated bounding box is rounded up to whole pixels. Offsets interpolate
// linearly across bg - rotated, so 0% touches the left/top edge and 100% the
// right/bottom edge.
//
// Resolve fails with ErrInvalidParams when p is out of range or either size has
// a zero dimension. It does no pixel work.
func Resolve(bg, fg Size, p Params) (Geometry, error) {
	if err := p.Validate(); err != nil {
		return Geometry{}, err
	}
	if bg.empty() {
		return Geometry{}, fmt.Errorf("%w: background size %dx%d", ErrInvalidParams, bg.Width, bg.Height)
	}
	if fg.empty() {
		return Geometry{}, fmt.Errorf("%w: design size %dx%d", ErrInvalidParams, fg.Width, fg.Height)
	}

	short := bg.Width
	if bg.Height < short {
		short = bg.Height
	}
	long := int(math.Floor(float64(short) * p.SizePercent / 100))
	// A design is never smaller than one pixel, even when min*size/100 is.
	if long < 1 {
		long = 1
	}

	target := fitLongEdge(fg, long)
	angle := normalizeAngle(p.RotationDegrees)
	rotated := rotatedBounds(target, angle)

	return Geometry{
		Target:   target,
		Rotated:  rotated,
		Offset:   image.Pt(interpolate(bg.Width-rotated.Width, p.XPercent), interpolate(bg.Height-rotated.Height, p.YPercent)),
		Rotation: angle,
		Alpha:    p.OpacityPercent / 100,
	}, nil
}

// fitLongEdge scales native uniformly so its longer edge equals long.
func fitLongEdge(native Size, long int) Size {
	if native.Width >= native.Height {
		h := int(math.Round(float64(native.Height) * float64(long) / float64(native.Width)))
		return Size{Width: long, Height: max(h, 1)}
	}
	w := int(math.Round(float64(native.Width) * float64(long) / float64(native.Height)))
	return Size{Width: max(w, 1), Height: long}
}

// rotatedBounds returns the bounding box of s rotated by degrees.
func rotatedBounds(s Size, degrees float64) Size {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	sin, cos = math.Abs(sin), math.Abs(cos)
	w, h := float64(s.Width), float64(s.Height)
	return Size{
		Width:  ceilPixels(w*cos + h*sin),
		Height: ceilPixels(w*sin + h*cos),
	}
}

// ceilPixels rounds up, ignoring float noise from sin/cos at right angles.
func ceilPixels(v float64) int {
	return int(math.Ceil(v - 1e-9))
}

func interpolate(span int, percent float64) int {
	return int(math.Round(float64(span) * percent / 100))
}
