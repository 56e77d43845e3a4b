// Package compose overlays a tattoo design onto a background photo.
//
// The pipeline has two halves. Resolve turns user-facing percentages and
// degrees into pixel geometry. Composite applies that geometry to image
// buffers: resample, rotate, fade, place, flatten. Every stage takes and
// returns *image.NRGBA values and never modifies its input, so renders with
// different parameters can run concurrently on the same source images.
//
// # Coordinates
//
// Sizes are in pixels. Offsets are measured from the top-left corner of the
// background, X to the right, Y downward. An offset may be negative or push the
// design past the right/bottom edge; the overflow is clipped, never an error.
//
// # Errors
//
// Out-of-range parameters and zero-sized inputs wrap ErrInvalidParams. Images
// that cannot be decoded or normalized to RGBA wrap ErrUnsupportedFormat. Use
// errors.Is to tell them apart. Nothing in this package logs or retries.
//
// # Re-rendering
//
// Preview binds a background to a design and remembers the resampled and
// rotated design, so moving the position or opacity only repeats the cheap
// place and flatten stages. RenderCache memoizes complete encoded outputs.
package compose
