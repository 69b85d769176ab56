package memory

import (
	"errors"
	"testing"
	"unsafe"
)

func TestHeapAllocatorAlignment(t *testing.T) {
	var a HeapAllocator
	for _, align := range []int{1, 2, 4, 8, 16, 64} {
		b, err := a.Allocate(37, align)
		if err != nil {
			t.Fatalf("align %d: %v", align, err)
		}
		if len(b) != 37 {
			t.Fatalf("len = %d, want 37", len(b))
		}
		if uintptr(unsafe.Pointer(&b[0]))%uintptr(align) != 0 {
			t.Fatalf("block not aligned to %d", align)
		}
	}
}

func TestHeapAllocatorInvalid(t *testing.T) {
	var a HeapAllocator
	for _, tc := range []struct{ size, align int }{{-1, 4}, {8, 0}, {8, 3}} {
		if _, err := a.Allocate(tc.size, tc.align); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("Allocate(%d, %d) err = %v, want ErrInvalidRequest", tc.size, tc.align, err)
		}
	}
}

func TestTrackingAllocator(t *testing.T) {
	ta := NewTrackingAllocator(nil)
	b1, _ := ta.Allocate(16, 4)
	b2, _ := ta.Allocate(32, 8)
	if ta.Outstanding() != 2 {
		t.Fatalf("outstanding = %d, want 2", ta.Outstanding())
	}
	if err := ta.Close(); !errors.Is(err, ErrLeak) {
		t.Fatalf("Close() = %v, want ErrLeak", err)
	}
	ta.Deallocate(b1, 4)
	ta.Deallocate(b2, 8)
	if err := ta.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	allocs, frees := ta.Counts()
	if allocs != 2 || frees != 2 {
		t.Fatalf("counts = %d/%d, want 2/2", allocs, frees)
	}
}

func TestTrackingAllocatorDoubleFreePanics(t *testing.T) {
	ta := NewTrackingAllocator(nil)
	b, _ := ta.Allocate(8, 4)
	ta.Deallocate(b, 4)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double free")
		}
	}()
	ta.Deallocate(b, 4)
}

func TestTrackingAllocatorAlignmentMismatchPanics(t *testing.T) {
	ta := NewTrackingAllocator(nil)
	b, _ := ta.Allocate(8, 8)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on alignment mismatch")
		}
	}()
	ta.Deallocate(b, 4)
}

type pair struct {
	A uint16
	B bool
}

func TestArenaLayoutAndCarve(t *testing.T) {
	var l Layout
	offF := Reserve[[4]float32](&l, 3)
	offU := Reserve[uint32](&l, 5)
	offP := Reserve[pair](&l, 2)
	offB := Reserve[byte](&l, 7)
	if offF != 0 || offU != 48 || offP != 68 || offB != 76 {
		t.Fatalf("offsets = %d %d %d %d", offF, offU, offP, offB)
	}
	if l.Size() != 83 || l.Alignment() != 4 {
		t.Fatalf("size=%d align=%d", l.Size(), l.Alignment())
	}

	block, err := HeapAllocator{}.Allocate(l.Size(), l.Alignment())
	if err != nil {
		t.Fatal(err)
	}
	a := NewArena(block)
	fs := Carve[[4]float32](a, 3)
	us := Carve[uint32](a, 5)
	ps := Carve[pair](a, 2)
	bs := Carve[byte](a, 7)
	if len(fs) != 3 || len(us) != 5 || len(ps) != 2 || len(bs) != 7 {
		t.Fatal("unexpected view lengths")
	}
	if a.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", a.Remaining())
	}

	fs[2][3] = 1.5
	us[4] = 0xdeadbeef
	ps[1] = pair{A: 7, B: true}
	bs[6] = 'z'
	if fs[2][3] != 1.5 || us[4] != 0xdeadbeef || ps[1].A != 7 || !ps[1].B || block[82] != 'z' {
		t.Fatal("views do not alias the block")
	}
}

func TestArenaOverflowPanics(t *testing.T) {
	a := NewArena(make([]byte, 8))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Carve[uint32](a, 3)
}

func TestArenaZeroCarve(t *testing.T) {
	a := NewArena(nil)
	if v := Carve[uint32](a, 0); v != nil {
		t.Fatalf("zero carve = %v, want nil", v)
	}
}
