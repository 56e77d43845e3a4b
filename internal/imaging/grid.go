package imaging

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	dimaging "github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/ironsheep/tattoo-studio/internal/compose"
)

// GridLine is one guide line of a placement grid.
type GridLine struct {
	Percent float64 `json:"percent"`
	Pixel   int     `json:"pixel"`
}

// GridOverlayResult contains the background with placement guides drawn on it.
type GridOverlayResult struct {
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	ImageBase64 string     `json:"image_base64"`
	MimeType    string     `json:"mime_type"`
	StepPercent float64    `json:"step_percent"`
	Columns     []GridLine `json:"columns"`
	Rows        []GridLine `json:"rows"`
}

var defaultGridColor = color.NRGBA{R: 255, G: 0, B: 0, A: 160}

// PlacementGrid draws guide lines every stepPercent of the background's
// width and height, labelled with their percentage, so a user can read off
// the x and y values for a placement.
//
// The guides are approximate. A line at p% sits at round((w-1)*p/100), while
// a design placed at x=p starts at round((w-rotatedWidth)*p/100), so the
// larger the design the further its left edge falls short of the line.
// gridColorHex is "#RRGGBB"; empty selects semi-transparent red.
func PlacementGrid(bg image.Image, stepPercent float64, showLabels bool, gridColorHex string) (*GridOverlayResult, error) {
	if math.IsNaN(stepPercent) || stepPercent < 5 || stepPercent > 50 {
		return nil, fmt.Errorf("grid step %v%% outside [5, 50]", stepPercent)
	}

	gridColor := defaultGridColor
	if gridColorHex != "" {
		c, err := colorful.Hex(gridColorHex)
		if err != nil {
			return nil, fmt.Errorf("invalid grid color %q: %w", gridColorHex, err)
		}
		r, g, b := c.RGB255()
		gridColor = color.NRGBA{R: r, G: g, B: b, A: defaultGridColor.A}
	}

	if bg == nil {
		return nil, fmt.Errorf("%w: no background", compose.ErrUnsupportedFormat)
	}
	result := dimaging.Clone(bg)
	width := result.Bounds().Dx()
	height := result.Bounds().Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: empty background", compose.ErrUnsupportedFormat)
	}
	line := image.NewUniform(gridColor)

	var cols, rows []GridLine
	for i := 1; float64(i)*stepPercent < 100; i++ {
		p := float64(i) * stepPercent
		x := gridPixel(width, p)
		y := gridPixel(height, p)
		cols = append(cols, GridLine{Percent: p, Pixel: x})
		rows = append(rows, GridLine{Percent: p, Pixel: y})
		draw.Draw(result, image.Rect(x, 0, x+1, height), line, image.Point{}, draw.Over)
		draw.Draw(result, image.Rect(0, y, width, y+1), line, image.Point{}, draw.Over)
	}

	if showLabels {
		labelColor := color.NRGBA{255, 255, 255, 255}
		bgColor := color.NRGBA{0, 0, 0, 180}
		for _, c := range cols {
			drawLabel(result, c.Pixel+2, 2, formatPercent(c.Percent), labelColor, bgColor)
		}
		for _, r := range rows {
			drawLabel(result, 2, r.Pixel+2, formatPercent(r.Percent), labelColor, bgColor)
		}
	}

	data, err := compose.EncodePNG(result)
	if err != nil {
		return nil, err
	}

	return &GridOverlayResult{
		Width:       width,
		Height:      height,
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
		StepPercent: stepPercent,
		Columns:     cols,
		Rows:        rows,
	}, nil
}

func gridPixel(span int, percent float64) int {
	return int(math.Round(float64(span-1) * percent / 100))
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// drawLabel draws a small label with a 3x5 pixel font for digits and '.'.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		'.': {"000", "000", "000", "000", "010"},
	}

	charWidth := 4
	box := image.Rect(x-1, y-1, x+len(text)*charWidth, y+7)
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Over)

	bounds := img.Bounds()
	cx := x
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, pixel := range line {
				px, py := cx+col, y+row
				if pixel == '1' && image.Pt(px, py).In(bounds) {
					img.SetNRGBA(px, py, fg)
				}
			}
		}
		cx += charWidth
	}
}
