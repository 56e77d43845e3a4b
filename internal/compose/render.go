package compose

import (
	"fmt"
	"image"
)

// Render resolves p against the two images and composites them.
func Render(bg, fg image.Image, p Params) (*image.NRGBA, Geometry, error) {
	base, err := Normalize(bg)
	if err != nil {
		return nil, Geometry{}, fmt.Errorf("background: %w", err)
	}
	design, err := Normalize(fg)
	if err != nil {
		return nil, Geometry{}, fmt.Errorf("design: %w", err)
	}
	g, err := Resolve(SizeOf(base), SizeOf(design), p)
	if err != nil {
		return nil, Geometry{}, err
	}
	out, err := Composite(base, design, g)
	if err != nil {
		return nil, Geometry{}, err
	}
	return out, g, nil
}

// RenderBytes decodes two encoded images, composites them and returns PNG bytes.
func RenderBytes(bg, fg []byte, p Params) ([]byte, error) {
	// Check params before paying for two decodes.
	if err := p.Validate(); err != nil {
		return nil, err
	}
	base, err := Decode(bg)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	design, err := Decode(fg)
	if err != nil {
		return nil, fmt.Errorf("design: %w", err)
	}
	out, _, err := Render(base, design, p)
	if err != nil {
		return nil, err
	}
	return EncodePNG(out)
}
