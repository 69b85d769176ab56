package codec

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"skelpack/internal/mathutil"
)

func randomQuat(r *rand.Rand) mgl32.Quat {
	q := mgl32.Quat{
		W: r.Float32()*2 - 1,
		V: mgl32.Vec3{r.Float32()*2 - 1, r.Float32()*2 - 1, r.Float32()*2 - 1},
	}
	return mathutil.NormalizeSafe(q, mgl32.QuatIdent())
}

func TestQuantizeQuatTolerance(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		q := randomQuat(r)
		got := QuantizeQuat(q).Dequantize()
		d := math.Abs(float64(q.Dot(got)))
		if math.Abs(1-d) >= 1e-3 {
			t.Fatalf("quat %v -> %v, |1-|dot|| = %v", q, got, math.Abs(1-d))
		}
	}
}

func TestQuantizeQuatLargestAndSign(t *testing.T) {
	tests := []struct {
		name    string
		q       mgl32.Quat
		largest uint8
		sign    bool
	}{
		{"identity", mgl32.QuatIdent(), 3, false},
		{"negative w", mgl32.Quat{W: -1}, 3, true},
		{"x axis", mgl32.Quat{V: mgl32.Vec3{1, 0, 0}}, 0, false},
		{"negative y", mgl32.Quat{W: 0.1, V: mgl32.Vec3{0, -0.99, 0}}, 1, true},
		{"z axis", mgl32.QuatRotate(3, mgl32.Vec3{0, 0, 1}), 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mathutil.NormalizeSafe(tt.q, mgl32.QuatIdent())
			qq := QuantizeQuat(q)
			if qq.Largest != tt.largest || qq.Sign != tt.sign {
				t.Fatalf("largest=%d sign=%v, want %d %v", qq.Largest, qq.Sign, tt.largest, tt.sign)
			}
			back := qq.Dequantize()
			if math.Abs(float64(back.Dot(q))) < 0.999 {
				t.Fatalf("round trip %v -> %v", q, back)
			}
		})
	}
}

func TestQuantizeQuatClamps(t *testing.T) {
	// Non normalized input must not overflow int16.
	qq := QuantizeQuat(mgl32.Quat{W: 3, V: mgl32.Vec3{2, 2, 2}})
	for i, v := range qq.Value {
		if v > 32767 || v < -32767 {
			t.Fatalf("value[%d] = %d out of range", i, v)
		}
	}
}

func TestHalfRoundTrip(t *testing.T) {
	exact := []float32{0, 1, -1, 0.5, 1.5, -2, 0.25, 1024, 65504}
	for _, f := range exact {
		if got := HalfToFloat(FloatToHalf(f)); got != f {
			t.Errorf("half(%v) = %v", f, got)
		}
	}
	approx := []float32{0.1, 3.14159, -7.77, 123.456}
	for _, f := range approx {
		got := HalfToFloat(FloatToHalf(f))
		if math.Abs(float64(got-f)) > math.Abs(float64(f))*1e-3 {
			t.Errorf("half(%v) = %v, too far", f, got)
		}
	}
	v := mgl32.Vec3{1, -2, 0.5}
	if got := DecompressFloat3(CompressFloat3(v)); got != v {
		t.Errorf("float3 = %v, want %v", got, v)
	}
}

func TestSwap(t *testing.T) {
	if Swap16(0x1234) != 0x3412 {
		t.Errorf("Swap16 = %#x", Swap16(0x1234))
	}
	if Swap32(0x12345678) != 0x78563412 {
		t.Errorf("Swap32 = %#x", Swap32(0x12345678))
	}
	if Swap64(Swap64(0x0102030405060708)) != 0x0102030405060708 {
		t.Error("Swap64 is not an involution")
	}
	b := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	SwapInPlace(b, 4)
	want := []byte{4, 3, 2, 1, 8, 7, 6, 5}
	for i := range b {
		if b[i] != want[i] {
			t.Fatalf("SwapInPlace = %v, want %v", b, want)
		}
	}
	SwapInPlace(b, 1)
	if b[0] != 4 {
		t.Fatal("width 1 must be a no-op")
	}
}

func TestNativeEndianness(t *testing.T) {
	e := NativeEndianness()
	if e != LittleEndian && e != BigEndian {
		t.Fatalf("unexpected endianness %d", e)
	}
}
