package mathutil

import "github.com/go-gl/mathgl/mgl32"

// SoaFloat3 stores 4 vectors component by component: X[i], Y[i], Z[i] is lane i.
type SoaFloat3 struct {
	X, Y, Z [4]float32
}

// SoaQuat stores 4 quaternions component by component.
type SoaQuat struct {
	X, Y, Z, W [4]float32
}

// SoaTransform stores the transforms of 4 joints in structure-of-arrays layout.
// It contains only float32 values so it can live in arena memory.
type SoaTransform struct {
	Translation SoaFloat3
	Rotation    SoaQuat
	Scale       SoaFloat3
}

// SoaFloat4x4 stores 4 column-major matrices: Cols[c][r][lane].
type SoaFloat4x4 struct {
	Cols [4][4][4]float32
}

// SoaIdentity returns 4 identity transforms.
func SoaIdentity() SoaTransform {
	one := [4]float32{1, 1, 1, 1}
	return SoaTransform{
		Rotation: SoaQuat{W: one},
		Scale:    SoaFloat3{X: one, Y: one, Z: one},
	}
}

// Lane extracts the AoS transform stored in lane i.
func (t *SoaTransform) Lane(i int) Transform {
	return Transform{
		Translation: mgl32.Vec3{t.Translation.X[i], t.Translation.Y[i], t.Translation.Z[i]},
		Rotation: mgl32.Quat{
			W: t.Rotation.W[i],
			V: mgl32.Vec3{t.Rotation.X[i], t.Rotation.Y[i], t.Rotation.Z[i]},
		},
		Scale: mgl32.Vec3{t.Scale.X[i], t.Scale.Y[i], t.Scale.Z[i]},
	}
}

// SetLane stores tr into lane i.
func (t *SoaTransform) SetLane(i int, tr Transform) {
	t.Translation.X[i], t.Translation.Y[i], t.Translation.Z[i] = tr.Translation[0], tr.Translation[1], tr.Translation[2]
	t.Rotation.X[i], t.Rotation.Y[i], t.Rotation.Z[i] = tr.Rotation.V[0], tr.Rotation.V[1], tr.Rotation.V[2]
	t.Rotation.W[i] = tr.Rotation.W
	t.Scale.X[i], t.Scale.Y[i], t.Scale.Z[i] = tr.Scale[0], tr.Scale[1], tr.Scale[2]
}

// Transpose4x4 swaps rows and columns.
func Transpose4x4(in [4][4]float32) [4][4]float32 {
	var out [4][4]float32
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[c][r] = in[r][c]
		}
	}
	return out
}

// PackSoa converts 4 AoS transforms to SoA layout. Each joint is loaded as one
// row per component group and the rows are transposed into lanes.
func PackSoa(ts [4]Transform) SoaTransform {
	var tr, rot, sc [4][4]float32
	for i, t := range ts {
		tr[i] = [4]float32{t.Translation[0], t.Translation[1], t.Translation[2], 0}
		rot[i] = QuatToArray(t.Rotation)
		sc[i] = [4]float32{t.Scale[0], t.Scale[1], t.Scale[2], 0}
	}
	tt, rt, st := Transpose4x4(tr), Transpose4x4(rot), Transpose4x4(sc)
	return SoaTransform{
		Translation: SoaFloat3{X: tt[0], Y: tt[1], Z: tt[2]},
		Rotation:    SoaQuat{X: rt[0], Y: rt[1], Z: rt[2], W: rt[3]},
		Scale:       SoaFloat3{X: st[0], Y: st[1], Z: st[2]},
	}
}

// SoaMatrixFromAffine builds T * R * S matrices for the 4 lanes of t.
func SoaMatrixFromAffine(t *SoaTransform) SoaFloat4x4 {
	var m SoaFloat4x4
	for l := 0; l < 4; l++ {
		x, y, z, w := t.Rotation.X[l], t.Rotation.Y[l], t.Rotation.Z[l], t.Rotation.W[l]
		xx, yy, zz := x*x, y*y, z*z
		xy, xz, yz := x*y, x*z, y*z
		wx, wy, wz := w*x, w*y, w*z
		sx, sy, sz := t.Scale.X[l], t.Scale.Y[l], t.Scale.Z[l]

		m.Cols[0][0][l] = (1 - 2*(yy+zz)) * sx
		m.Cols[0][1][l] = 2 * (xy + wz) * sx
		m.Cols[0][2][l] = 2 * (xz - wy) * sx
		m.Cols[1][0][l] = 2 * (xy - wz) * sy
		m.Cols[1][1][l] = (1 - 2*(xx+zz)) * sy
		m.Cols[1][2][l] = 2 * (yz + wx) * sy
		m.Cols[2][0][l] = 2 * (xz + wy) * sz
		m.Cols[2][1][l] = 2 * (yz - wx) * sz
		m.Cols[2][2][l] = (1 - 2*(xx+yy)) * sz
		m.Cols[3][0][l] = t.Translation.X[l]
		m.Cols[3][1][l] = t.Translation.Y[l]
		m.Cols[3][2][l] = t.Translation.Z[l]
		m.Cols[3][3][l] = 1
	}
	return m
}

// Transpose16x16 unpacks the 4 SoA matrices into 4 AoS matrices in one pass.
func Transpose16x16(m *SoaFloat4x4) [4]mgl32.Mat4 {
	var out [4]mgl32.Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			lanes := m.Cols[c][r]
			for l := 0; l < 4; l++ {
				out[l][c*4+r] = lanes[l]
			}
		}
	}
	return out
}
