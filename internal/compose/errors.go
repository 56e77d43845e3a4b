package compose

import "errors"

var (
	// ErrInvalidParams reports an out-of-range transform parameter or a
	// zero-sized image. Nothing has been rendered when it is returned.
	ErrInvalidParams = errors.New("invalid params")

	// ErrUnsupportedFormat reports image bytes that do not decode, or an image
	// that cannot be normalized to an RGBA pixel layout.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
