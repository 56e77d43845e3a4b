package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGBAColor represents an RGBA color with 8-bit components including alpha.
//
// The alpha component represents opacity:
//   - 0 = fully transparent
//   - 255 = fully opaque
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex  string    `json:"hex"`  // Hex format "#RRGGBB" (no alpha)
	RGB  RGBColor  `json:"rgb"`  // RGB components
	RGBA RGBAColor `json:"rgba"` // Non-premultiplied RGBA components
	HSL  HSLColor  `json:"hsl"`  // HSL representation
}

// newColorResult describes a non-premultiplied color.
func newColorResult(c color.NRGBA) ColorResult {
	cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	h, s, l := cf.Hsl()
	return ColorResult{
		Hex:  strings.ToUpper(cf.Hex()),
		RGB:  RGBColor{R: c.R, G: c.G, B: c.B},
		RGBA: RGBAColor{R: c.R, G: c.G, B: c.B, A: c.A},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Coordinates are 0-based with origin at top-left. Colors are reported
// without alpha premultiplication, so a half-transparent red design pixel
// reads as #FF0000 with alpha 128.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	result := newColorResult(c)
	return &result, nil
}

// LabeledPoint represents a pixel coordinate with an optional descriptive label.
type LabeledPoint struct {
	X     int
	Y     int
	Label string
}

// LabeledColorResult combines a color sample with its location and optional label.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`
}

// MultiColorResult contains color samples from multiple points, in input order.
type MultiColorResult struct {
	Samples []LabeledColorResult `json:"samples"`
}

// SampleColorsMulti extracts colors at multiple pixel coordinates in a single call.
//
// On error no partial results are returned.
func SampleColorsMulti(img image.Image, points []LabeledPoint) (*MultiColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		color, err := SampleColor(img, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledColorResult{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Color: *color,
		})
	}

	return &MultiColorResult{Samples: results}, nil
}

// PaletteColor is one ink color of a design.
type PaletteColor struct {
	Hex        string   `json:"hex"`
	RGB        RGBColor `json:"rgb"`
	Percentage float64  `json:"percentage"` // Share of the inked pixels (0-100)
}

// PaletteResult lists the ink colors of a design, most used first.
type PaletteResult struct {
	Colors []PaletteColor `json:"colors"`

	// Coverage is the share of all pixels that carry ink (0-100).
	Coverage float64 `json:"coverage"`
}

// paletteMergeDistance is the CIEDE2000 distance below which two quantized
// colors count as the same ink.
const paletteMergeDistance = 0.08

// inkAlpha is the alpha at or above which a design pixel counts as ink.
const inkAlpha = 128

type inkBucket struct {
	c     colorful.Color
	rgb   RGBColor
	count int
}

// DesignPalette returns up to count ink colors of a design.
//
// Pixels with alpha below 128 are background and are ignored. The remaining
// pixels are quantized to 16 levels per channel, then perceptually close
// buckets are merged using the CIEDE2000 distance so anti-aliased edges do not
// show up as separate inks.
func DesignPalette(img image.Image, count int) (*PaletteResult, error) {
	if count < 1 {
		return nil, fmt.Errorf("count must be at least 1, got %d", count)
	}

	bounds := img.Bounds()
	counts := make(map[RGBColor]int)
	inked := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A < inkAlpha {
				continue
			}
			// Quantize to group similar colors
			counts[RGBColor{R: c.R / 16 * 16, G: c.G / 16 * 16, B: c.B / 16 * 16}]++
			inked++
		}
	}
	if inked == 0 {
		return nil, errors.New("design has no opaque pixels")
	}

	buckets := make([]inkBucket, 0, len(counts))
	for rgb, n := range counts {
		buckets = append(buckets, inkBucket{
			c:     colorful.Color{R: float64(rgb.R) / 255, G: float64(rgb.G) / 255, B: float64(rgb.B) / 255},
			rgb:   rgb,
			count: n,
		})
	}
	sortBuckets(buckets)

	var inks []inkBucket
	for _, b := range buckets {
		merged := false
		for i := range inks {
			if inks[i].c.DistanceCIEDE2000(b.c) < paletteMergeDistance {
				inks[i].count += b.count
				merged = true
				break
			}
		}
		if !merged {
			inks = append(inks, b)
		}
	}
	sortBuckets(inks)

	if len(inks) > count {
		inks = inks[:count]
	}
	colors := make([]PaletteColor, 0, len(inks))
	for _, ink := range inks {
		colors = append(colors, PaletteColor{
			Hex:        strings.ToUpper(ink.c.Hex()),
			RGB:        ink.rgb,
			Percentage: float64(ink.count) / float64(inked) * 100,
		})
	}

	return &PaletteResult{
		Colors:   colors,
		Coverage: float64(inked) / float64(bounds.Dx()*bounds.Dy()) * 100,
	}, nil
}

// sortBuckets orders by count, then by hex so ties are deterministic.
func sortBuckets(b []inkBucket) {
	sort.Slice(b, func(i, j int) bool {
		if b[i].count != b[j].count {
			return b[i].count > b[j].count
		}
		return b[i].c.Hex() < b[j].c.Hex()
	})
}
