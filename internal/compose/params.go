package compose

import (
	"fmt"
	"math"
)

// Parameter ranges, inclusive. Rotation outside its range is wrapped rather
// than rejected; the bounds are the slider range front ends offer.
const (
	MinSizePercent    = 10.0
	MaxSizePercent    = 50.0
	MinPositionPct    = 0.0
	MaxPositionPct    = 100.0
	MinRotation       = -180.0
	MaxRotation       = 180.0
	MinOpacityPercent = 20.0
	MaxOpacityPercent = 100.0
)

// Params holds the five user controls for placing a design.
//
// Params is a plain value; copy it freely.
type Params struct {
	// SizePercent is the design's longer edge as a percentage of the
	// background's shorter edge (10-50).
	SizePercent float64 `json:"size_percent"`

	// XPercent and YPercent interpolate the design across the free space
	// of the background: 0 touches the left/top edge, 100 the right/bottom
	// edge (0-100).
	XPercent float64 `json:"x_percent"`
	YPercent float64 `json:"y_percent"`

	// RotationDegrees turns the design counter-clockwise about its center.
	// The control range is -180 to 180; other finite angles are wrapped.
	RotationDegrees float64 `json:"rotation_degrees"`

	// OpacityPercent scales the design's alpha channel (20-100).
	OpacityPercent float64 `json:"opacity_percent"`
}

// DefaultParams returns the control positions a fresh preview starts with.
func DefaultParams() Params {
	return Params{
		SizePercent:     25,
		XPercent:        50,
		YPercent:        50,
		RotationDegrees: 0,
		OpacityPercent:  100,
	}
}

// Validate rejects out-of-range values. Values are never clamped.
func (p Params) Validate() error {
	fields := []struct {
		name     string
		value    float64
		min, max float64
	}{
		{"size_percent", p.SizePercent, MinSizePercent, MaxSizePercent},
		{"x_percent", p.XPercent, MinPositionPct, MaxPositionPct},
		{"y_percent", p.YPercent, MinPositionPct, MaxPositionPct},
		{"opacity_percent", p.OpacityPercent, MinOpacityPercent, MaxOpacityPercent},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || f.value < f.min || f.value > f.max {
			return fmt.Errorf("%w: %s %v outside [%v, %v]", ErrInvalidParams, f.name, f.value, f.min, f.max)
		}
	}
	if math.IsNaN(p.RotationDegrees) || math.IsInf(p.RotationDegrees, 0) {
		return fmt.Errorf("%w: rotation_degrees %v is not finite", ErrInvalidParams, p.RotationDegrees)
	}
	return nil
}

// normalizeAngle wraps degrees into (-180, 180].
func normalizeAngle(degrees float64) float64 {
	a := math.Mod(degrees, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}
	return a
}
