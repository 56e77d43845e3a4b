package compose

import (
	"fmt"
	"image"
	"sync"
)

// Preview renders one design on one background many times, as when a user
// drags a slider. It keeps the most recent resampled and rotated design, so a
// change to position or opacity skips the expensive stages and a change to
// rotation skips resampling.
//
// Preview is safe for concurrent use. Cached stage images are never modified
// after they are stored.
type Preview struct {
	bg *image.NRGBA
	fg *image.NRGBA

	mu        sync.Mutex
	resampled *stageEntry
	rotated   *stageEntry
}

type stageKey struct {
	target   Size
	rotated  Size
	rotation float64
}

type stageEntry struct {
	key stageKey
	img *image.NRGBA
}

// NewPreview normalizes both images once and binds them together.
func NewPreview(bg, fg image.Image) (*Preview, error) {
	base, err := Normalize(bg)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	design, err := Normalize(fg)
	if err != nil {
		return nil, fmt.Errorf("design: %w", err)
	}
	return &Preview{bg: base, fg: design}, nil
}

// Resolve returns the geometry p would render with.
func (pv *Preview) Resolve(p Params) (Geometry, error) {
	return Resolve(SizeOf(pv.bg), SizeOf(pv.fg), p)
}

// Render composites the bound design with p. The result is byte-identical to
// Render(bg, fg, p).
func (pv *Preview) Render(p Params) (*image.NRGBA, Geometry, error) {
	g, err := pv.Resolve(p)
	if err != nil {
		return nil, Geometry{}, err
	}
	return finish(pv.bg, pv.rotatedDesign(g), g), g, nil
}

func (pv *Preview) rotatedDesign(g Geometry) *image.NRGBA {
	rkey := stageKey{target: g.Target, rotated: g.Rotated, rotation: g.Rotation}
	skey := stageKey{target: g.Target}

	pv.mu.Lock()
	if pv.rotated != nil && pv.rotated.key == rkey {
		img := pv.rotated.img
		pv.mu.Unlock()
		return img
	}
	var resampled *image.NRGBA
	if pv.resampled != nil && pv.resampled.key == skey {
		resampled = pv.resampled.img
	}
	pv.mu.Unlock()

	if resampled == nil {
		resampled = Resample(pv.fg, g.Target)
	}
	rotated := Rotate(resampled, g.Rotation, g.Rotated)

	pv.mu.Lock()
	pv.resampled = &stageEntry{key: skey, img: resampled}
	pv.rotated = &stageEntry{key: rkey, img: rotated}
	pv.mu.Unlock()
	return rotated
}
