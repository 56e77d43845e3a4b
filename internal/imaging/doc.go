// Package imaging provides the image tools that sit around the compositor:
// loading and caching backgrounds and designs, sampling colors from a
// composite, extracting a design's ink palette, drawing placement guides,
// zooming in on a placement, and tracing a design into a stencil.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Placement guides use the same percentages as compose.Params, so a line
// labelled 25 on the grid corresponds to x=25 or y=25.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Images returned by the
// cache are shared and must be treated as read-only; every operation here
// works on copies.
//
// # Color Representation
//
// Colors are returned in multiple formats:
//   - Hex: 6-character format "#RRGGBB" (alpha excluded)
//   - RGB: 8-bit components (0-255)
//   - RGBA: 8-bit non-premultiplied components (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
package imaging
