package compose

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// createSolidImage returns a width x height image filled with c.
func createSolidImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// createQuadrantImage returns an image with red, green, blue and white quadrants.
func createQuadrantImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.NRGBA
			switch {
			case x < width/2 && y < height/2:
				c = red
			case x >= width/2 && y < height/2:
				c = color.NRGBA{G: 255, A: 255}
			case x < width/2:
				c = color.NRGBA{B: 255, A: 255}
			default:
				c = white
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodeTestPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func near(a, b uint8, tolerance int) bool {
	d := int(a) - int(b)
	return d >= -tolerance && d <= tolerance
}

func assertColor(t *testing.T, img *image.NRGBA, x, y int, want color.NRGBA, tolerance int) {
	t.Helper()
	got := img.NRGBAAt(x, y)
	if !near(got.R, want.R, tolerance) || !near(got.G, want.G, tolerance) ||
		!near(got.B, want.B, tolerance) || !near(got.A, want.A, tolerance) {
		t.Errorf("pixel (%d,%d): got %v, want %v (+/-%d)", x, y, got, want, tolerance)
	}
}

func TestRender_RedSquareOnWhite(t *testing.T) {
	bg := createSolidImage(800, 600, white)
	fg := createSolidImage(200, 200, red)

	out, g, err := Render(bg, fg, Params{SizePercent: 25, OpacityPercent: 100})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if g.Target != (Size{150, 150}) || g.Offset != image.Pt(0, 0) {
		t.Errorf("geometry: got target %v offset %v", g.Target, g.Offset)
	}
	if SizeOf(out) != (Size{800, 600}) {
		t.Fatalf("output size: got %v, want 800x600", SizeOf(out))
	}
	assertColor(t, out, 0, 0, red, 0)
	assertColor(t, out, 149, 149, red, 0)
	assertColor(t, out, 150, 150, white, 0)
	assertColor(t, out, 799, 599, white, 0)
}

func TestRender_RedSquareBottomRight(t *testing.T) {
	bg := createSolidImage(800, 600, white)
	fg := createSolidImage(200, 200, red)

	out, g, err := Render(bg, fg, Params{SizePercent: 25, XPercent: 100, YPercent: 100, OpacityPercent: 100})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if g.Offset != image.Pt(650, 450) {
		t.Errorf("offset: got %v, want (650,450)", g.Offset)
	}
	assertColor(t, out, 799, 599, red, 0)
	assertColor(t, out, 650, 450, red, 0)
	assertColor(t, out, 649, 449, white, 0)
	assertColor(t, out, 0, 0, white, 0)
}

func TestRender_HalfOpacityBlends(t *testing.T) {
	bg := createSolidImage(800, 600, white)
	fg := createSolidImage(200, 200, red)

	out, _, err := Render(bg, fg, Params{SizePercent: 25, OpacityPercent: 50})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	// 50/50 red over white: red stays 255, green and blue drop to half.
	assertColor(t, out, 75, 75, color.NRGBA{R: 255, G: 128, B: 128, A: 255}, 2)
	assertColor(t, out, 400, 400, white, 0)
}

func TestRender_OutputMatchesBackgroundSize(t *testing.T) {
	bg := createSolidImage(320, 240, white)
	designs := []*image.NRGBA{
		createSolidImage(10, 10, red),
		createSolidImage(1000, 50, red),
		createSolidImage(50, 1000, red),
		createQuadrantImage(640, 480),
	}

	for _, fg := range designs {
		for _, deg := range []float64{-180, -120, -90, -33, 0, 17, 45, 90, 135, 180} {
			for _, pct := range []float64{0, 50, 100} {
				p := Params{SizePercent: 50, XPercent: pct, YPercent: 100 - pct, RotationDegrees: deg, OpacityPercent: 80}
				out, _, err := Render(bg, fg, p)
				if err != nil {
					t.Fatalf("Render(%+v) failed: %v", p, err)
				}
				if SizeOf(out) != (Size{320, 240}) {
					t.Errorf("Render(%+v): output %v, want 320x240", p, SizeOf(out))
				}
			}
		}
	}
}

func TestComposite_ClipsOutsideCanvas(t *testing.T) {
	bg := createSolidImage(100, 80, white)
	fg := createSolidImage(40, 40, red)

	tests := []struct {
		name   string
		offset image.Point
		redAt  []image.Point
	}{
		{"partly left", image.Pt(-20, 10), []image.Point{{0, 10}, {19, 49}}},
		{"partly bottom right", image.Pt(80, 60), []image.Point{{99, 79}, {80, 60}}},
		{"fully outside", image.Pt(500, 500), nil},
		{"fully negative", image.Pt(-100, -100), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Geometry{Target: Size{40, 40}, Rotated: Size{40, 40}, Offset: tt.offset, Alpha: 1}
			out, err := Composite(bg, fg, g)
			if err != nil {
				t.Fatalf("Composite failed: %v", err)
			}
			if SizeOf(out) != (Size{100, 80}) {
				t.Fatalf("output size: got %v, want 100x80", SizeOf(out))
			}
			for _, p := range tt.redAt {
				assertColor(t, out, p.X, p.Y, red, 0)
			}
			if tt.redAt == nil && !bytes.Equal(out.Pix, bg.Pix) {
				t.Error("design placed fully outside should leave the background untouched")
			}
		})
	}
}

func TestComposite_InvalidInputs(t *testing.T) {
	bg := createSolidImage(10, 10, white)
	fg := createSolidImage(10, 10, red)
	g := Geometry{Target: Size{5, 5}, Rotated: Size{5, 5}, Alpha: 1}

	if _, err := Composite(nil, fg, g); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("nil background: got %v, want ErrUnsupportedFormat", err)
	}
	if _, err := Composite(bg, image.NewNRGBA(image.Rect(0, 0, 0, 0)), g); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("empty design: got %v, want ErrUnsupportedFormat", err)
	}
	if _, err := Composite(bg, fg, Geometry{Alpha: 1}); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("empty geometry: got %v, want ErrInvalidParams", err)
	}
}

func TestComposite_DoesNotModifyInputs(t *testing.T) {
	bg := createSolidImage(60, 60, white)
	fg := createQuadrantImage(30, 30)
	bgBefore := append([]uint8(nil), bg.Pix...)
	fgBefore := append([]uint8(nil), fg.Pix...)

	if _, _, err := Render(bg, fg, Params{SizePercent: 50, XPercent: 30, YPercent: 70, RotationDegrees: 33, OpacityPercent: 40}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.Equal(bg.Pix, bgBefore) {
		t.Error("Render modified the background")
	}
	if !bytes.Equal(fg.Pix, fgBefore) {
		t.Error("Render modified the design")
	}
}

func TestRender_Deterministic(t *testing.T) {
	bg := createQuadrantImage(400, 300)
	fg := createQuadrantImage(120, 80)
	p := Params{SizePercent: 30, XPercent: 40, YPercent: 60, RotationDegrees: 0, OpacityPercent: 100}

	first, _, err := Render(bg, fg, p)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	second, _, err := Render(bg, fg, p)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.Equal(encodeTestPNG(t, first), encodeTestPNG(t, second)) {
		t.Error("identical renders produced different bytes")
	}
}

func TestResample_Size(t *testing.T) {
	img := createQuadrantImage(200, 100)
	out := Resample(img, Size{50, 25})
	if SizeOf(out) != (Size{50, 25}) {
		t.Errorf("Resample size: got %v, want 50x25", SizeOf(out))
	}
	assertColor(t, out, 5, 5, red, 1)
	assertColor(t, out, 45, 20, white, 1)
}

func TestRotate_ZeroIsCopy(t *testing.T) {
	img := createQuadrantImage(40, 20)
	out := Rotate(img, 0, Size{40, 20})
	if out == img {
		t.Error("Rotate returned its input")
	}
	if !bytes.Equal(out.Pix, img.Pix) {
		t.Error("0 degree rotation changed pixels")
	}
}

func TestRotate_RightAngles(t *testing.T) {
	img := createQuadrantImage(40, 20)

	// Counter-clockwise 90: the top-right (green) quadrant moves to the top-left.
	ccw := Rotate(img, 90, Size{20, 40})
	if SizeOf(ccw) != (Size{20, 40}) {
		t.Fatalf("90 deg size: got %v, want 20x40", SizeOf(ccw))
	}
	assertColor(t, ccw, 2, 2, color.NRGBA{G: 255, A: 255}, 0)
	assertColor(t, ccw, 2, 38, red, 0)

	cw := Rotate(img, -90, Size{20, 40})
	assertColor(t, cw, 2, 2, color.NRGBA{B: 255, A: 255}, 0)
	assertColor(t, cw, 18, 2, red, 0)

	flipped := Rotate(img, 180, Size{40, 20})
	assertColor(t, flipped, 0, 0, white, 0)
	assertColor(t, flipped, 39, 19, red, 0)
}

func TestRotate_ExpandsWithTransparentCorners(t *testing.T) {
	img := createSolidImage(100, 100, red)
	size := rotatedBounds(Size{100, 100}, 45)

	out := Rotate(img, 45, size)
	if SizeOf(out) != size {
		t.Fatalf("45 deg size: got %v, want %v", SizeOf(out), size)
	}
	if a := out.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("corner alpha: got %d, want 0", a)
	}
	if a := out.NRGBAAt(size.Width-1, size.Height-1).A; a != 0 {
		t.Errorf("far corner alpha: got %d, want 0", a)
	}
	assertColor(t, out, size.Width/2, size.Height/2, red, 2)
}

func TestApplyOpacity_FullIsNoop(t *testing.T) {
	img := createQuadrantImage(30, 30)
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 77})

	out := ApplyOpacity(img, 1)
	if out == img {
		t.Error("ApplyOpacity returned its input")
	}
	if !bytes.Equal(out.Pix, img.Pix) {
		t.Error("alpha 1.0 changed pixels")
	}
}

func TestApplyOpacity_RoundsAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 200})
	img.SetNRGBA(2, 0, color.NRGBA{B: 255, A: 1})
	img.SetNRGBA(3, 0, color.NRGBA{R: 9, A: 0})

	out := ApplyOpacity(img, 0.5)
	want := []uint8{128, 100, 1, 0}
	for x, a := range want {
		got := out.NRGBAAt(x, 0)
		if got.A != a {
			t.Errorf("pixel %d alpha: got %d, want %d", x, got.A, a)
		}
	}
	if c := out.NRGBAAt(1, 0); c.G != 255 {
		t.Errorf("colour channels must be untouched, got %v", c)
	}
}

func TestNormalize(t *testing.T) {
	gray := image.NewGray(image.Rect(5, 5, 15, 10))
	out, err := Normalize(gray)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 10, 5) {
		t.Errorf("bounds: got %v, want origin-based 10x5", out.Bounds())
	}
	if a := out.NRGBAAt(0, 0).A; a != 255 {
		t.Errorf("synthesized alpha: got %d, want 255", a)
	}

	if _, err := Normalize(nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("nil image: got %v, want ErrUnsupportedFormat", err)
	}
	if _, err := Normalize(image.NewRGBA(image.Rect(0, 0, 0, 10))); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("empty image: got %v, want ErrUnsupportedFormat", err)
	}
}

func TestRenderBytes(t *testing.T) {
	bg := encodeTestPNG(t, createSolidImage(800, 600, white))
	fg := encodeTestPNG(t, createSolidImage(200, 200, red))

	out, err := RenderBytes(bg, fg, Params{SizePercent: 25, XPercent: 100, YPercent: 100, OpacityPercent: 100})
	if err != nil {
		t.Fatalf("RenderBytes failed: %v", err)
	}
	decoded, err := Decode(out)
	if err != nil {
		t.Fatalf("output is not a decodable image: %v", err)
	}
	if SizeOf(decoded) != (Size{800, 600}) {
		t.Errorf("decoded size: got %v, want 800x600", SizeOf(decoded))
	}
	assertColor(t, decoded, 799, 599, red, 0)
}

func TestRenderBytes_Errors(t *testing.T) {
	good := encodeTestPNG(t, createSolidImage(20, 20, white))

	tests := []struct {
		name    string
		bg, fg  []byte
		params  Params
		wantErr error
	}{
		{"garbage background", []byte("not an image"), good, DefaultParams(), ErrUnsupportedFormat},
		{"empty design", good, nil, DefaultParams(), ErrUnsupportedFormat},
		{"bad size", good, good, Params{SizePercent: 80, OpacityPercent: 100}, ErrInvalidParams},
		{"bad params beat bad bytes", nil, nil, Params{SizePercent: 25, OpacityPercent: 5}, ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderBytes(tt.bg, tt.fg, tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRender_Concurrent(t *testing.T) {
	bg := createQuadrantImage(200, 150)
	fg := createQuadrantImage(60, 60)
	want, _, err := Render(bg, fg, DefaultParams())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _, err := Render(bg, fg, DefaultParams())
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(got.Pix, want.Pix) {
				errs <- errors.New("concurrent render differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
