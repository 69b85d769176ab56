package mathutil

import "github.com/go-gl/mathgl/mgl32"

// RotX returns a rotation of a radians around the X axis.
func RotX(a float32) mgl32.Quat {
	return mgl32.QuatRotate(a, mgl32.Vec3{1, 0, 0})
}

// RotY returns a rotation of a radians around the Y axis.
func RotY(a float32) mgl32.Quat {
	return mgl32.QuatRotate(a, mgl32.Vec3{0, 1, 0})
}

// RotZ returns a rotation of a radians around the Z axis.
func RotZ(a float32) mgl32.Quat {
	return mgl32.QuatRotate(a, mgl32.Vec3{0, 0, 1})
}
