// Package codec holds the quantization primitives used by the compressed
// animation format: half floats, 3-smallest-component quaternions and
// endian swapping.
package codec

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/x448/float16"
)

// FloatToHalf converts f to IEEE 754 binary16 bits. Values outside the half
// range saturate to infinity.
func FloatToHalf(f float32) uint16 {
	return float16.Fromfloat32(f).Bits()
}

// HalfToFloat expands binary16 bits to float32.
func HalfToFloat(h uint16) float32 {
	return float16.Frombits(h).Float32()
}

// CompressFloat3 packs a vector into 3 half floats.
func CompressFloat3(v mgl32.Vec3) [3]uint16 {
	return [3]uint16{FloatToHalf(v[0]), FloatToHalf(v[1]), FloatToHalf(v[2])}
}

// DecompressFloat3 unpacks 3 half floats.
func DecompressFloat3(h [3]uint16) mgl32.Vec3 {
	return mgl32.Vec3{HalfToFloat(h[0]), HalfToFloat(h[1]), HalfToFloat(h[2])}
}
