package codec

import (
	"encoding/binary"
	"math/bits"
)

// Endianness selects the byte order of an archive.
type Endianness uint8

const (
	BigEndian    Endianness = 0
	LittleEndian Endianness = 1
)

// NativeEndianness reports the byte order of the running architecture.
func NativeEndianness() Endianness {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 1)
	if b[0] == 1 {
		return LittleEndian
	}
	return BigEndian
}

func (e Endianness) String() string {
	if e == LittleEndian {
		return "little"
	}
	return "big"
}

// Swap16 reverses the bytes of a 2 byte scalar.
func Swap16(v uint16) uint16 { return bits.ReverseBytes16(v) }

// Swap32 reverses the bytes of a 4 byte scalar.
func Swap32(v uint32) uint32 { return bits.ReverseBytes32(v) }

// Swap64 reverses the bytes of an 8 byte scalar.
func Swap64(v uint64) uint64 { return bits.ReverseBytes64(v) }

// SwapInPlace reverses each width-sized scalar of b. Width 1 is a no-op.
func SwapInPlace(b []byte, width int) {
	if width <= 1 {
		return
	}
	for off := 0; off+width <= len(b); off += width {
		s := b[off : off+width]
		for i, j := 0, width-1; i < j; i, j = i+1, j-1 {
			s[i], s[j] = s[j], s[i]
		}
	}
}
