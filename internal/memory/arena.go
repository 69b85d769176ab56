package memory

import (
	"fmt"
	"unsafe"
)

// Layout accumulates the size of a single block holding several arrays.
// Reserve calls must be mirrored, in the same order, by Carve calls on the
// Arena built over the allocated block.
type Layout struct {
	size  int
	align int
}

// Size returns the block size required so far.
func (l *Layout) Size() int { return l.size }

// Alignment returns the strictest alignment requested so far (at least 1).
func (l *Layout) Alignment() int {
	if l.align == 0 {
		return 1
	}
	return l.align
}

// Reserve adds room for n values of T and returns their offset.
func Reserve[T any](l *Layout, n int) int {
	var zero T
	align := int(unsafe.Alignof(zero))
	if align > l.align {
		l.align = align
	}
	off := alignUp(l.size, align)
	l.size = off + n*int(unsafe.Sizeof(zero))
	return off
}

// Arena carves typed views out of one block. Views must only hold types
// without pointers (numbers, bools and arrays or structs of them): the
// garbage collector does not scan the block.
type Arena struct {
	buf []byte
	off int
}

// NewArena wraps block.
func NewArena(block []byte) *Arena {
	return &Arena{buf: block}
}

// Remaining returns the bytes not yet carved.
func (a *Arena) Remaining() int { return len(a.buf) - a.off }

// Carve returns the next n values of T. It panics when the block is too small
// or misaligned, which means the Layout and the carving order disagree.
func Carve[T any](a *Arena, n int) []T {
	var zero T
	size, align := int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero))
	off := alignUp(a.off, align)
	end := off + n*size
	if n < 0 || end > len(a.buf) {
		panic(fmt.Sprintf("memory: carve of %d×%d bytes at %d overflows %d byte block", n, size, off, len(a.buf)))
	}
	a.off = end
	if n == 0 {
		return nil
	}
	p := unsafe.Pointer(&a.buf[off])
	if uintptr(p)%uintptr(align) != 0 {
		panic("memory: misaligned carve")
	}
	return unsafe.Slice((*T)(p), n)
}
