package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Float3 aliases the mgl32 vector so callers outside the math layer can stay
// library agnostic.
type Float3 = mgl32.Vec3

// Lerp3 interpolates a and b by alpha.
func Lerp3(a, b mgl32.Vec3, alpha float32) mgl32.Vec3 {
	return mgl32.Vec3{
		a[0] + (b[0]-a[0])*alpha,
		a[1] + (b[1]-a[1])*alpha,
		a[2] + (b[2]-a[2])*alpha,
	}
}

// Dist3 returns |a - b|.
func Dist3(a, b mgl32.Vec3) float32 {
	return a.Sub(b).Len()
}

// MaxAbs3 returns the component with the largest magnitude, as an absolute value.
func MaxAbs3(v mgl32.Vec3) float32 {
	m := float32(math.Abs(float64(v[0])))
	if a := float32(math.Abs(float64(v[1]))); a > m {
		m = a
	}
	if a := float32(math.Abs(float64(v[2]))); a > m {
		m = a
	}
	return m
}

// Div3 divides a by b component-wise. Zero components of b yield zero.
func Div3(a, b mgl32.Vec3) mgl32.Vec3 {
	var out mgl32.Vec3
	for i := 0; i < 3; i++ {
		if b[i] != 0 {
			out[i] = a[i] / b[i]
		}
	}
	return out
}
