// Package animation holds the runtime compressed clip. Keys are quantized and
// stored in three flat arrays, one per transform component, sorted by time
// then track.
package animation

import (
	"github.com/go-gl/mathgl/mgl32"

	"skelpack/internal/codec"
	"skelpack/internal/memory"
	"skelpack/internal/raw"
)

// MaxTracks is the largest track count a clip supports.
const MaxTracks = raw.MaxJoints

const (
	trackBits   = 13
	trackMask   = 1<<trackBits - 1
	largestMask = 3 << trackBits
	signBit     = 1 << 15
)

// Float3Key is a half-float translation or scale key.
type Float3Key struct {
	Time  float32
	Track uint16
	Value [3]uint16
}

// Decompress returns the key value.
func (k *Float3Key) Decompress() mgl32.Vec3 {
	return codec.DecompressFloat3(k.Value)
}

// QuatKey is a quantized rotation key. Bits packs the track on 13 bits, the
// index of the dropped component on 2 bits and its sign on the top bit.
type QuatKey struct {
	Time  float32
	Bits  uint16
	Value [3]int16
}

func newQuatKey(time float32, track int, q mgl32.Quat) QuatKey {
	qq := codec.QuantizeQuat(q)
	bits := uint16(track)&trackMask | uint16(qq.Largest)<<trackBits
	if qq.Sign {
		bits |= signBit
	}
	return QuatKey{Time: time, Bits: bits, Value: qq.Value}
}

// Track returns the track index.
func (k *QuatKey) Track() int { return int(k.Bits & trackMask) }

// Largest returns the index in (x, y, z, w) of the dropped component.
func (k *QuatKey) Largest() int { return int(k.Bits&largestMask) >> trackBits }

// Sign reports whether the dropped component is negative.
func (k *QuatKey) Sign() bool { return k.Bits&signBit != 0 }

// Decompress returns the key rotation.
func (k *QuatKey) Decompress() mgl32.Quat {
	return codec.QuantizedQuat{
		Largest: uint8(k.Largest()),
		Sign:    k.Sign(),
		Value:   k.Value,
	}.Dequantize()
}

// Animation is read-only once built and may be shared between goroutines.
// Its arrays are views over a single block owned by the clip.
type Animation struct {
	alloc memory.Allocator
	block []byte
	align int

	duration  float32
	numTracks int

	translations []Float3Key
	rotations    []QuatKey
	scales       []Float3Key
	name         []byte
}

// New returns an empty clip that Load fills using alloc. A nil alloc means
// the Go heap.
func New(alloc memory.Allocator) *Animation {
	return &Animation{alloc: alloc}
}

// Duration returns the clip length in seconds.
func (a *Animation) Duration() float32 { return a.duration }

// NumTracks returns the number of joint tracks.
func (a *Animation) NumTracks() int { return a.numTracks }

// NumSoaTracks returns the number of SoA groups needed to sample the clip.
func (a *Animation) NumSoaTracks() int { return (a.numTracks + 3) / 4 }

// Name returns the clip name.
func (a *Animation) Name() string { return string(a.name) }

// Translations returns the translation keys. The slice must not be modified.
func (a *Animation) Translations() []Float3Key { return a.translations }

// Rotations returns the rotation keys. The slice must not be modified.
func (a *Animation) Rotations() []QuatKey { return a.rotations }

// Scales returns the scale keys. The slice must not be modified.
func (a *Animation) Scales() []Float3Key { return a.scales }

// Size returns the bytes held by the clip block.
func (a *Animation) Size() int { return len(a.block) }

// Release returns the block to the allocator the clip was built with and
// leaves the clip empty. Further calls do nothing.
func (a *Animation) Release() {
	if a.block != nil {
		a.allocator().Deallocate(a.block, a.align)
	}
	*a = Animation{alloc: a.alloc}
}

func (a *Animation) allocator() memory.Allocator {
	if a.alloc == nil {
		return memory.HeapAllocator{}
	}
	return a.alloc
}

func (a *Animation) allocate(nameLen, translations, rotations, scales int) error {
	a.Release()

	var l memory.Layout
	memory.Reserve[Float3Key](&l, translations)
	memory.Reserve[QuatKey](&l, rotations)
	memory.Reserve[Float3Key](&l, scales)
	memory.Reserve[byte](&l, nameLen)
	if l.Size() == 0 {
		return nil
	}

	block, err := a.allocator().Allocate(l.Size(), l.Alignment())
	if err != nil {
		return err
	}
	a.block, a.align = block, l.Alignment()

	ar := memory.NewArena(block)
	a.translations = memory.Carve[Float3Key](ar, translations)
	a.rotations = memory.Carve[QuatKey](ar, rotations)
	a.scales = memory.Carve[Float3Key](ar, scales)
	a.name = memory.Carve[byte](ar, nameLen)
	return nil
}
