package imaging

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	dimaging "github.com/disintegration/imaging"

	"github.com/ironsheep/tattoo-studio/internal/compose"
)

// StencilOptions controls how a design is traced into a stencil.
type StencilOptions struct {
	// BlurRadius smooths the design before tracing. 0 disables it.
	BlurRadius float64

	// Threshold is the edge strength (0-255) at or above which a pixel
	// becomes a line.
	Threshold uint8

	// LineWeight thickens lines by this radius in pixels. 0 keeps them thin.
	LineWeight float64

	// Transparent makes the paper transparent instead of white, so the
	// stencil can be previewed on skin like any other design.
	Transparent bool
}

// DefaultStencilOptions returns settings that suit clean line art.
func DefaultStencilOptions() StencilOptions {
	return StencilOptions{
		BlurRadius: 1.5,
		Threshold:  64,
		LineWeight: 1,
	}
}

// StencilResult contains a traced stencil encoded as base64 PNG.
type StencilResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`

	// LinePercent is the share of pixels that are lines (0-100).
	LinePercent float64 `json:"line_percent"`

	image *image.NRGBA
}

// Image returns the stencil as an image.
func (r *StencilResult) Image() *image.NRGBA {
	return r.image
}

// Stencil traces the outlines of a design into black lines on white paper,
// the form an artist transfers onto skin.
//
// Transparent areas of the design are treated as paper. The tracing runs
// grayscale, Gaussian blur, Sobel edge detection and a threshold, with an
// optional dilation for heavier lines.
func Stencil(design image.Image, opts StencilOptions) (*StencilResult, error) {
	if design == nil || design.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty design", compose.ErrUnsupportedFormat)
	}
	if opts.BlurRadius < 0 || opts.BlurRadius > 20 {
		return nil, fmt.Errorf("blur radius %v outside [0, 20]", opts.BlurRadius)
	}
	if opts.LineWeight < 0 || opts.LineWeight > 10 {
		return nil, fmt.Errorf("line weight %v outside [0, 10]", opts.LineWeight)
	}

	fg, err := compose.Normalize(design)
	if err != nil {
		return nil, err
	}
	paper := dimaging.New(fg.Bounds().Dx(), fg.Bounds().Dy(), color.White)
	flat := compose.Flatten(paper, fg)

	var gray image.Image = effect.Grayscale(flat)
	if opts.BlurRadius > 0 {
		gray = blur.Gaussian(gray, opts.BlurRadius)
	}
	// Sobel keeps only rising gradients, so trace the negative as well to
	// catch edges facing the other way.
	edges := blend.Lighten(effect.Sobel(gray), effect.Sobel(effect.Invert(gray)))
	lines := segment.Threshold(edges, opts.Threshold)

	var mask image.Image = lines
	if opts.LineWeight > 0 {
		mask = effect.Dilate(lines, opts.LineWeight)
	}

	out, linePixels := inkStencil(mask, opts.Transparent)

	data, err := compose.EncodePNG(out)
	if err != nil {
		return nil, err
	}

	b := out.Bounds()
	return &StencilResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
		LinePercent: float64(linePixels) / float64(b.Dx()*b.Dy()) * 100,
		image:       out,
	}, nil
}

// inkStencil turns a white-on-black line mask into black ink on paper.
func inkStencil(mask image.Image, transparent bool) (*image.NRGBA, int) {
	b := mask.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	ink := color.NRGBA{A: 255}
	paper := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if transparent {
		paper = color.NRGBA{}
	}

	linePixels := 0
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if color.GrayModel.Convert(mask.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y >= 128 {
				out.SetNRGBA(x, y, ink)
				linePixels++
			} else {
				out.SetNRGBA(x, y, paper)
			}
		}
	}
	return out, linePixels
}
