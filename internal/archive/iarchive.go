package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-logr/logr"

	"skelpack/internal/codec"
)

var (
	// ErrUnsupportedVersion is returned when an object was written with a
	// version the reader does not support.
	ErrUnsupportedVersion = errors.New("archive: unsupported version")

	// ErrTagMismatch is returned when the stream holds another type.
	ErrTagMismatch = errors.New("archive: tag mismatch")

	// ErrCorrupt is returned for counts that cannot fit the stream.
	ErrCorrupt = errors.New("archive: corrupt stream")
)

// maxTagLen bounds tag reads so a corrupt stream cannot run away.
const maxTagLen = 64

// IArchive reads scalars written by an OArchive, swapping bytes when the
// stream byte order differs from the native one. Reads after the first error
// return zero values.
type IArchive struct {
	s       Stream
	endian  codec.Endianness
	swap    bool
	err     error
	log     logr.Logger
	scratch [8]byte
}

// Option configures an IArchive.
type Option func(*IArchive)

// WithLogger routes load warnings (unsupported versions) to log.
func WithLogger(log logr.Logger) Option {
	return func(a *IArchive) { a.log = log }
}

// NewIArchive starts reading s, consuming the endianness tag.
func NewIArchive(s Stream, opts ...Option) *IArchive {
	a := &IArchive{s: s, log: logr.Discard()}
	for _, opt := range opts {
		opt(a)
	}
	tag := a.ReadUint8()
	switch codec.Endianness(tag) {
	case codec.BigEndian, codec.LittleEndian:
		a.endian = codec.Endianness(tag)
		a.swap = a.endian != Native
	default:
		if a.err == nil {
			a.err = fmt.Errorf("%w: invalid endianness tag %d", ErrCorrupt, tag)
		}
	}
	return a
}

// Endianness returns the byte order detected from the stream.
func (a *IArchive) Endianness() codec.Endianness { return a.endian }

// Err returns the first read error.
func (a *IArchive) Err() error { return a.err }

// Logger returns the warning sink.
func (a *IArchive) Logger() logr.Logger { return a.log }

// Fail records err unless an error is already pending.
func (a *IArchive) Fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

func (a *IArchive) read(b []byte) bool {
	if a.err != nil {
		clear(b)
		return false
	}
	if _, err := io.ReadFull(a.s, b); err != nil {
		a.err = fmt.Errorf("archive: read: %w", err)
		clear(b)
		return false
	}
	return true
}

func (a *IArchive) ReadUint8() uint8 {
	a.read(a.scratch[:1])
	return a.scratch[0]
}

func (a *IArchive) ReadBool() bool { return a.ReadUint8() != 0 }

func (a *IArchive) ReadUint16() uint16 {
	a.read(a.scratch[:2])
	v := binary.NativeEndian.Uint16(a.scratch[:2])
	if a.swap {
		v = codec.Swap16(v)
	}
	return v
}

func (a *IArchive) ReadInt16() int16 { return int16(a.ReadUint16()) }

func (a *IArchive) ReadUint32() uint32 {
	a.read(a.scratch[:4])
	v := binary.NativeEndian.Uint32(a.scratch[:4])
	if a.swap {
		v = codec.Swap32(v)
	}
	return v
}

func (a *IArchive) ReadInt32() int32 { return int32(a.ReadUint32()) }

func (a *IArchive) ReadUint64() uint64 {
	a.read(a.scratch[:8])
	v := binary.NativeEndian.Uint64(a.scratch[:8])
	if a.swap {
		v = codec.Swap64(v)
	}
	return v
}

func (a *IArchive) ReadFloat32() float32 { return math.Float32frombits(a.ReadUint32()) }

// ReadBytes fills b from the stream.
func (a *IArchive) ReadBytes(b []byte) { a.read(b) }

// Remaining returns the bytes left in the stream.
func (a *IArchive) Remaining() int64 {
	return a.s.Size() - a.s.Tell()
}

// ReadCount reads a slice length prefix and checks that at least
// n*minElemSize bytes remain.
func (a *IArchive) ReadCount(minElemSize int) int {
	n := a.ReadInt32()
	if a.err != nil {
		return 0
	}
	if n < 0 || int64(n)*int64(minElemSize) > a.Remaining() {
		a.err = fmt.Errorf("%w: count %d exceeds stream", ErrCorrupt, n)
		return 0
	}
	return int(n)
}

// ReadString reads a length-prefixed string.
func (a *IArchive) ReadString() string {
	n := a.ReadCount(1)
	if n == 0 {
		return ""
	}
	b := make([]byte, n)
	if !a.read(b) {
		return ""
	}
	return string(b)
}

// ReadCString reads a NUL-terminated string of at most limit bytes.
func (a *IArchive) ReadCString(limit int) string {
	var b []byte
	for i := 0; i <= limit; i++ {
		c := a.ReadUint8()
		if a.err != nil {
			return ""
		}
		if c == 0 {
			return string(b)
		}
		b = append(b, c)
	}
	a.Fail(fmt.Errorf("%w: unterminated string", ErrCorrupt))
	return ""
}

// TestTag reports whether the next object in the stream carries tag, without
// consuming anything.
func (a *IArchive) TestTag(tag string) bool {
	if a.err != nil {
		return false
	}
	pos := a.s.Tell()
	got := a.ReadCString(maxTagLen)
	ok := a.err == nil && got == tag
	a.err = nil
	if _, err := a.s.Seek(pos, io.SeekStart); err != nil {
		a.err = fmt.Errorf("archive: seek: %w", err)
		return false
	}
	return ok
}
