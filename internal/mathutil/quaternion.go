package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// EulerToQuat converts Euler XYZ (radians) to a quaternion.
func EulerToQuat(rx, ry, rz float32) mgl32.Quat {
	cx, sx := cos32(rx*0.5), sin32(rx*0.5)
	cy, sy := cos32(ry*0.5), sin32(ry*0.5)
	cz, sz := cos32(rz*0.5), sin32(rz*0.5)

	return mgl32.Quat{
		W: cx*cy*cz + sx*sy*sz,
		V: mgl32.Vec3{
			sx*cy*cz - cx*sy*sz, // x
			cx*sy*cz + sx*cy*sz, // y
			cx*cy*sz - sx*sy*cz, // z
		},
	}
}

// QuatToArray returns the quaternion as (x, y, z, w).
func QuatToArray(q mgl32.Quat) [4]float32 {
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}

// QuatFromArray builds a quaternion from (x, y, z, w).
func QuatFromArray(a [4]float32) mgl32.Quat {
	return mgl32.Quat{W: a[3], V: mgl32.Vec3{a[0], a[1], a[2]}}
}

// NormalizeSafe returns q normalized, or safer when q is degenerate.
func NormalizeSafe(q, safer mgl32.Quat) mgl32.Quat {
	sq := float64(q.W*q.W + q.V.Dot(q.V))
	if sq < Epsilon || math.IsNaN(sq) || math.IsInf(sq, 0) {
		return safer
	}
	inv := float32(1 / math.Sqrt(sq))
	return mgl32.Quat{W: q.W * inv, V: q.V.Mul(inv)}
}

// IsNormalized reports whether |q| is 1 within a small tolerance.
func IsNormalized(q mgl32.Quat) bool {
	sq := q.W*q.W + q.V.Dot(q.V)
	return float32(math.Abs(float64(sq-1))) < 5e-4
}

// AngleBetween returns the shortest angle in radians that rotates a onto b.
// It is measured on the relative rotation conj(a)*b with atan2, which stays
// accurate for nearly equal rotations where acos of the dot product does not.
func AngleBetween(a, b mgl32.Quat) float32 {
	aw, ax, ay, az := float64(a.W), float64(a.V[0]), float64(a.V[1]), float64(a.V[2])
	bw, bx, by, bz := float64(b.W), float64(b.V[0]), float64(b.V[1]), float64(b.V[2])

	rw := aw*bw + ax*bx + ay*by + az*bz
	rx := aw*bx - bw*ax - (ay*bz - az*by)
	ry := aw*by - bw*ay - (az*bx - ax*bz)
	rz := aw*bz - bw*az - (ax*by - ay*bx)

	return float32(2 * math.Atan2(math.Sqrt(rx*rx+ry*ry+rz*rz), math.Abs(rw)))
}

// Nlerp interpolates a and b along the shortest path and renormalizes.
func Nlerp(a, b mgl32.Quat, alpha float32) mgl32.Quat {
	if a.Dot(b) < 0 {
		b = mgl32.Quat{W: -b.W, V: b.V.Mul(-1)}
	}
	q := mgl32.Quat{
		W: a.W + (b.W-a.W)*alpha,
		V: Lerp3(a.V, b.V, alpha),
	}
	return NormalizeSafe(q, mgl32.QuatIdent())
}

// Negate returns -q, which encodes the same rotation.
func Negate(q mgl32.Quat) mgl32.Quat {
	return mgl32.Quat{W: -q.W, V: q.V.Mul(-1)}
}

func cos32(a float32) float32 { return float32(math.Cos(float64(a))) }
func sin32(a float32) float32 { return float32(math.Sin(float64(a))) }
