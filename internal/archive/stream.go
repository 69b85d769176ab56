package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Stream is the file-like object archives read from and write to.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
	// Tell returns the current position.
	Tell() int64
	// Size returns the total length of the stream.
	Size() int64
}

// MemoryStream is a growable in-memory Stream.
type MemoryStream struct {
	buf []byte
	pos int64
}

var _ Stream = (*MemoryStream)(nil)

// NewMemoryStream returns a stream positioned at the start of data.
// The stream takes ownership of data.
func NewMemoryStream(data []byte) *MemoryStream {
	return &MemoryStream{buf: data}
}

func (m *MemoryStream) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *MemoryStream) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		if end > int64(cap(m.buf)) {
			grown := make([]byte, end, max(end, 2*int64(cap(m.buf))))
			copy(grown, m.buf)
			m.buf = grown
		} else {
			m.buf = m.buf[:end]
		}
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *MemoryStream) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("archive: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("archive: negative seek position")
	}
	m.pos = abs
	return abs, nil
}

func (m *MemoryStream) Tell() int64 { return m.pos }

func (m *MemoryStream) Size() int64 { return int64(len(m.buf)) }

// Bytes returns the written content.
func (m *MemoryStream) Bytes() []byte { return m.buf }

// FileStream adapts an *os.File.
type FileStream struct {
	*os.File
}

var _ Stream = FileStream{}

// OpenFile opens path for reading.
func OpenFile(path string) (FileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileStream{}, fmt.Errorf("archive: open %s: %w", path, err)
	}
	return FileStream{f}, nil
}

// CreateFile creates or truncates path for writing.
func CreateFile(path string) (FileStream, error) {
	f, err := os.Create(path)
	if err != nil {
		return FileStream{}, fmt.Errorf("archive: create %s: %w", path, err)
	}
	return FileStream{f}, nil
}

func (f FileStream) Tell() int64 {
	pos, err := f.File.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	return pos
}

func (f FileStream) Size() int64 {
	info, err := f.File.Stat()
	if err != nil {
		return -1
	}
	return info.Size()
}
