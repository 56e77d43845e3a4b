package compose

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"

	lru "github.com/hashicorp/golang-lru"
)

// RenderCache memoizes encoded composites keyed by the pixel content of both
// images and the params. Rendering is pure, so a hit is always valid.
//
// On a miss it renders through a Preview kept for the image pair, so a
// slider drag that changes only position or opacity reuses the resampled
// and rotated design.
type RenderCache struct {
	entries  *lru.Cache
	previews *lru.Cache
}

type renderKey struct {
	bg, fg string
	params Params
}

type pairKey struct {
	bg, fg string
}

// previewPairs bounds how many image pairs keep their stage images.
const previewPairs = 4

// NewRenderCache creates a cache holding up to size PNG outputs.
func NewRenderCache(size int) (*RenderCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}
	previews, err := lru.New(previewPairs)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview cache: %w", err)
	}
	return &RenderCache{entries: c, previews: previews}, nil
}

// Fingerprint returns a hex SHA-256 of the image dimensions and pixels.
func Fingerprint(img *image.NRGBA) string {
	h := sha256.New()
	var dims [16]byte
	s := SizeOf(img)
	binary.BigEndian.PutUint64(dims[:8], uint64(s.Width))
	binary.BigEndian.PutUint64(dims[8:], uint64(s.Height))
	h.Write(dims[:])
	b := img.Bounds()
	rowBytes := b.Dx() * 4
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		h.Write(img.Pix[i : i+rowBytes])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Render returns the PNG composite for (bg, fg, p), rendering on a miss.
// The returned slice is shared with the cache and must not be modified.
func (c *RenderCache) Render(bg, fg *image.NRGBA, p Params) ([]byte, Geometry, error) {
	if bg == nil || fg == nil {
		return nil, Geometry{}, fmt.Errorf("%w: nil image", ErrUnsupportedFormat)
	}
	g, err := Resolve(SizeOf(bg), SizeOf(fg), p)
	if err != nil {
		return nil, Geometry{}, err
	}
	pair := pairKey{bg: Fingerprint(bg), fg: Fingerprint(fg)}
	key := renderKey{bg: pair.bg, fg: pair.fg, params: p}
	if v, ok := c.entries.Get(key); ok {
		return v.([]byte), g, nil
	}

	pv, err := c.preview(pair, bg, fg)
	if err != nil {
		return nil, Geometry{}, err
	}
	out, g, err := pv.Render(p)
	if err != nil {
		return nil, Geometry{}, err
	}
	data, err := EncodePNG(out)
	if err != nil {
		return nil, Geometry{}, err
	}
	c.entries.Add(key, data)
	return data, g, nil
}

// Image composites (bg, fg, p) without encoding, reusing the pair's stage
// images. The result is a new image owned by the caller.
func (c *RenderCache) Image(bg, fg *image.NRGBA, p Params) (*image.NRGBA, Geometry, error) {
	if bg == nil || fg == nil {
		return nil, Geometry{}, fmt.Errorf("%w: nil image", ErrUnsupportedFormat)
	}
	if err := p.Validate(); err != nil {
		return nil, Geometry{}, err
	}
	pv, err := c.preview(pairKey{bg: Fingerprint(bg), fg: Fingerprint(fg)}, bg, fg)
	if err != nil {
		return nil, Geometry{}, err
	}
	return pv.Render(p)
}

func (c *RenderCache) preview(key pairKey, bg, fg *image.NRGBA) (*Preview, error) {
	if v, ok := c.previews.Get(key); ok {
		return v.(*Preview), nil
	}
	pv, err := NewPreview(bg, fg)
	if err != nil {
		return nil, err
	}
	c.previews.Add(key, pv)
	return pv, nil
}

// Len reports the number of cached outputs.
func (c *RenderCache) Len() int {
	return c.entries.Len()
}
