// Package archive implements the versioned, tagged and endian-aware binary
// serialization shared by the authoring and runtime types.
package archive

import (
	"encoding/binary"
	"fmt"
	"math"

	"skelpack/internal/codec"
)

// Native selects the byte order of the running architecture.
var Native = codec.NativeEndianness()

// OArchive writes scalars to a Stream in a chosen byte order. The first error
// sticks: later writes are dropped and Err reports it.
type OArchive struct {
	s       Stream
	endian  codec.Endianness
	swap    bool
	err     error
	scratch [8]byte
}

// NewOArchive starts an archive on s. The endianness tag is written first so
// readers can detect the byte order.
func NewOArchive(s Stream, endian codec.Endianness) *OArchive {
	a := &OArchive{s: s, endian: endian, swap: endian != Native}
	a.WriteUint8(uint8(endian))
	return a
}

// Endianness returns the byte order of the archive.
func (a *OArchive) Endianness() codec.Endianness { return a.endian }

// Err returns the first write error.
func (a *OArchive) Err() error { return a.err }

func (a *OArchive) write(b []byte) {
	if a.err != nil {
		return
	}
	if _, err := a.s.Write(b); err != nil {
		a.err = fmt.Errorf("archive: write: %w", err)
	}
}

func (a *OArchive) WriteUint8(v uint8) {
	a.scratch[0] = v
	a.write(a.scratch[:1])
}

func (a *OArchive) WriteBool(v bool) {
	var b uint8
	if v {
		b = 1
	}
	a.WriteUint8(b)
}

func (a *OArchive) WriteUint16(v uint16) {
	if a.swap {
		v = codec.Swap16(v)
	}
	binary.NativeEndian.PutUint16(a.scratch[:2], v)
	a.write(a.scratch[:2])
}

func (a *OArchive) WriteInt16(v int16) { a.WriteUint16(uint16(v)) }

func (a *OArchive) WriteUint32(v uint32) {
	if a.swap {
		v = codec.Swap32(v)
	}
	binary.NativeEndian.PutUint32(a.scratch[:4], v)
	a.write(a.scratch[:4])
}

func (a *OArchive) WriteInt32(v int32) { a.WriteUint32(uint32(v)) }

func (a *OArchive) WriteUint64(v uint64) {
	if a.swap {
		v = codec.Swap64(v)
	}
	binary.NativeEndian.PutUint64(a.scratch[:8], v)
	a.write(a.scratch[:8])
}

func (a *OArchive) WriteFloat32(v float32) { a.WriteUint32(math.Float32bits(v)) }

// WriteBytes writes b verbatim. Bytes have no byte order.
func (a *OArchive) WriteBytes(b []byte) { a.write(b) }

// WriteCount writes a slice length prefix.
func (a *OArchive) WriteCount(n int) {
	if n > math.MaxInt32 {
		if a.err == nil {
			a.err = fmt.Errorf("archive: count %d overflows int32", n)
		}
		return
	}
	a.WriteInt32(int32(n))
}

// WriteString writes a length-prefixed string.
func (a *OArchive) WriteString(s string) {
	a.WriteCount(len(s))
	a.write([]byte(s))
}

// WriteCString writes s followed by a NUL byte.
func (a *OArchive) WriteCString(s string) {
	a.write([]byte(s))
	a.WriteUint8(0)
}
