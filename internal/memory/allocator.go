// Package memory provides the explicit allocator handle used by the runtime
// builders and an arena that carves one allocation into typed views.
package memory

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

var (
	// ErrInvalidRequest is returned for negative sizes or alignments that are
	// not a power of two.
	ErrInvalidRequest = errors.New("memory: invalid allocation request")

	// ErrLeak is returned by TrackingAllocator.Close when blocks are outstanding.
	ErrLeak = errors.New("memory: outstanding allocations")
)

// Allocator hands out aligned byte blocks. A block must be returned to the
// allocator that produced it with the same alignment.
type Allocator interface {
	Allocate(size, alignment int) ([]byte, error)
	Deallocate(block []byte, alignment int)
}

// HeapAllocator allocates from the Go heap. Deallocate is a no-op: the
// garbage collector reclaims the block once the owner drops it.
type HeapAllocator struct{}

var _ Allocator = HeapAllocator{}

func (HeapAllocator) Allocate(size, alignment int) ([]byte, error) {
	if size < 0 || alignment <= 0 || alignment&(alignment-1) != 0 {
		return nil, fmt.Errorf("%w: size=%d alignment=%d", ErrInvalidRequest, size, alignment)
	}
	if size == 0 {
		return []byte{}, nil
	}
	raw := make([]byte, size+alignment-1)
	off := alignUp(int(uintptr(unsafe.Pointer(&raw[0]))), alignment) - int(uintptr(unsafe.Pointer(&raw[0])))
	return raw[off : off+size : off+size], nil
}

func (HeapAllocator) Deallocate([]byte, int) {}

// TrackingAllocator wraps another allocator and records every live block.
// It is safe for concurrent use.
type TrackingAllocator struct {
	next Allocator

	mu     sync.Mutex
	live   map[*byte]int // block start → alignment
	allocs int
	frees  int
}

var _ Allocator = (*TrackingAllocator)(nil)

// NewTrackingAllocator returns a tracking allocator over next, or over the
// heap when next is nil.
func NewTrackingAllocator(next Allocator) *TrackingAllocator {
	if next == nil {
		next = HeapAllocator{}
	}
	return &TrackingAllocator{next: next, live: make(map[*byte]int)}
}

func (t *TrackingAllocator) Allocate(size, alignment int) ([]byte, error) {
	b, err := t.next.Allocate(size, alignment)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.allocs++
	if len(b) > 0 {
		t.live[&b[0]] = alignment
	}
	t.mu.Unlock()
	return b, nil
}

// Deallocate panics when the block is unknown, already freed, or released
// with a different alignment: all three are caller bugs.
func (t *TrackingAllocator) Deallocate(block []byte, alignment int) {
	t.mu.Lock()
	t.frees++
	if len(block) > 0 {
		key := &block[0]
		align, ok := t.live[key]
		if !ok {
			t.mu.Unlock()
			panic("memory: deallocating an unknown or already released block")
		}
		if align != alignment {
			t.mu.Unlock()
			panic(fmt.Sprintf("memory: block allocated with alignment %d released with %d", align, alignment))
		}
		delete(t.live, key)
	}
	t.mu.Unlock()
	t.next.Deallocate(block, alignment)
}

// Outstanding returns the number of live non-empty blocks.
func (t *TrackingAllocator) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Counts returns the number of Allocate and Deallocate calls.
func (t *TrackingAllocator) Counts() (allocs, frees int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allocs, t.frees
}

// Close reports blocks that were never released.
func (t *TrackingAllocator) Close() error {
	if n := t.Outstanding(); n > 0 {
		return fmt.Errorf("%w: %d block(s)", ErrLeak, n)
	}
	return nil
}

func alignUp(v, alignment int) int {
	return (v + alignment - 1) &^ (alignment - 1)
}
