package codec

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"skelpack/internal/mathutil"
)

const (
	// float2Int pre-scales the 3 smallest components by √2: their magnitude
	// never exceeds 1/√2, so the full int16 range is used.
	float2Int = 32767 * mathutil.Sqrt2
	int2Float = 1 / float2Int
)

// smallest maps the dropped (largest) component to the 3 kept ones.
var smallest = [4][3]int{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}}

// QuantizedQuat is a unit quaternion reduced to its 3 smallest components.
type QuantizedQuat struct {
	Largest uint8 // index in (x, y, z, w) of the dropped component, 0..3
	Sign    bool  // true when the dropped component is negative
	Value   [3]int16
}

// QuantizeQuat compresses q, which is expected to be normalized.
func QuantizeQuat(q mgl32.Quat) QuantizedQuat {
	c := mathutil.QuatToArray(q)

	largest := 0
	for i := 1; i < 4; i++ {
		if abs32(c[i]) > abs32(c[largest]) {
			largest = i
		}
	}

	out := QuantizedQuat{
		Largest: uint8(largest),
		Sign:    c[largest] < 0,
	}
	for i, src := range smallest[largest] {
		v := int(math.Floor(float64(c[src]*float2Int) + .5))
		if v < -32767 {
			v = -32767
		} else if v > 32767 {
			v = 32767
		}
		out.Value[i] = int16(v)
	}
	return out
}

// Dequantize rebuilds the quaternion. The dropped component is recovered from
// the unit length constraint.
func (qq QuantizedQuat) Dequantize() mgl32.Quat {
	var c [4]float32
	var dot float32
	for i, dst := range smallest[qq.Largest&3] {
		v := float32(qq.Value[i]) * int2Float
		c[dst] = v
		dot += v * v
	}
	w := float32(math.Sqrt(math.Max(0, float64(1-dot))))
	if qq.Sign {
		w = -w
	}
	c[qq.Largest&3] = w
	return mathutil.QuatFromArray(c)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
