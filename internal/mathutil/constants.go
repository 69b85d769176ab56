package mathutil

import "math"

const (
	// Sqrt2 as float32, used by the rotation quantizer.
	Sqrt2 = float32(math.Sqrt2)

	// Epsilon is the squared-length threshold below which vectors and
	// quaternions are considered degenerate.
	Epsilon = 1e-16

	// Pi as float32.
	Pi = float32(math.Pi)
)

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float32) float32 {
	return d * Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float32) float32 {
	return r * 180 / Pi
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
