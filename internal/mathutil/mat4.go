package mathutil

import "github.com/go-gl/mathgl/mgl32"

// Transform is an affine transform decomposed as translation, rotation and scale.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// IdentityTransform returns the transform that changes nothing.
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix composes T * R * S into a column-major 4×4 matrix.
func (t Transform) Matrix() mgl32.Mat4 {
	m := t.Rotation.Mat4()
	for c := 0; c < 3; c++ {
		for r := 0; r < 3; r++ {
			m[c*4+r] *= t.Scale[c]
		}
	}
	m[12], m[13], m[14] = t.Translation[0], t.Translation[1], t.Translation[2]
	return m
}

// TransformPoint transforms a 3D point (w=1) by m.
func TransformPoint(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(v.Vec4(1)).Vec3()
}

// Translation returns the translation column of m.
func Translation(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m[12], m[13], m[14]}
}

// IsIdentity checks if the matrix is approximately identity.
func IsIdentity(m mgl32.Mat4) bool {
	return m.ApproxEqualThreshold(mgl32.Ident4(), 1e-6)
}
