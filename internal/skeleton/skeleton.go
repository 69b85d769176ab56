// Package skeleton holds the runtime skeleton: a flat, breadth-first joint
// hierarchy with its bind pose stored in SoA groups of four.
package skeleton

import (
	"bytes"

	"skelpack/internal/mathutil"
	"skelpack/internal/memory"
	"skelpack/internal/raw"
)

const (
	// MaxJoints is the largest joint count a skeleton supports.
	MaxJoints = raw.MaxJoints

	// MaxSoaJoints is the number of SoA groups needed for MaxJoints.
	MaxSoaJoints = (MaxJoints + 3) / 4

	// NoParent is the parent index of root joints.
	NoParent = MaxJoints
)

// JointProperties describes one joint of the flat hierarchy.
type JointProperties struct {
	Parent uint16 // NoParent for roots
	IsLeaf bool
}

// Skeleton is read-only once built and may be shared between goroutines.
// Joints are in breadth-first order so every parent precedes its children.
//
// All arrays are views over a single block owned by the skeleton. Only a
// Builder or Load produce a non-empty skeleton.
type Skeleton struct {
	alloc memory.Allocator
	block []byte
	align int

	bindPose []mathutil.SoaTransform
	names    []uint32 // start of each name in chars
	props    []JointProperties
	chars    []byte // NUL-terminated names
}

// New returns an empty skeleton that Load fills using alloc. A nil alloc
// means the Go heap.
func New(alloc memory.Allocator) *Skeleton {
	return &Skeleton{alloc: alloc}
}

// NumJoints returns the joint count.
func (s *Skeleton) NumJoints() int { return len(s.props) }

// NumSoaJoints returns the number of SoA groups of the bind pose.
func (s *Skeleton) NumSoaJoints() int { return len(s.bindPose) }

// BindPose returns the bind pose in SoA groups. Lanes past NumJoints hold
// identity transforms. The slice must not be modified.
func (s *Skeleton) BindPose() []mathutil.SoaTransform { return s.bindPose }

// JointProperties returns the per-joint parent and leaf flags.
func (s *Skeleton) JointProperties() []JointProperties { return s.props }

// Parent returns the parent index of joint i, or NoParent.
func (s *Skeleton) Parent(i int) int { return int(s.props[i].Parent) }

// IsLeaf reports whether joint i has no children.
func (s *Skeleton) IsLeaf(i int) bool { return s.props[i].IsLeaf }

// JointName returns the name of joint i.
func (s *Skeleton) JointName(i int) string {
	return string(s.nameBytes(i))
}

// JointNames returns every joint name in joint order.
func (s *Skeleton) JointNames() []string {
	out := make([]string, len(s.props))
	for i := range out {
		out[i] = s.JointName(i)
	}
	return out
}

func (s *Skeleton) nameBytes(i int) []byte {
	b := s.chars[s.names[i]:]
	if n := bytes.IndexByte(b, 0); n >= 0 {
		b = b[:n]
	}
	return b
}

// Release returns the block to the allocator the skeleton was built with and
// leaves the skeleton empty. Further calls do nothing.
func (s *Skeleton) Release() {
	if s.block != nil {
		s.allocator().Deallocate(s.block, s.align)
	}
	*s = Skeleton{alloc: s.alloc}
}

func (s *Skeleton) allocator() memory.Allocator {
	if s.alloc == nil {
		return memory.HeapAllocator{}
	}
	return s.alloc
}

// allocate releases any previous content and carves views for numJoints
// joints and charsCount name bytes out of one block.
func (s *Skeleton) allocate(numJoints, charsCount int) error {
	s.Release()
	if numJoints == 0 {
		return nil
	}
	numSoa := (numJoints + 3) / 4

	// Descending alignment keeps the block free of padding.
	var l memory.Layout
	memory.Reserve[mathutil.SoaTransform](&l, numSoa)
	memory.Reserve[uint32](&l, numJoints)
	memory.Reserve[JointProperties](&l, numJoints)
	memory.Reserve[byte](&l, charsCount)

	block, err := s.allocator().Allocate(l.Size(), l.Alignment())
	if err != nil {
		return err
	}
	s.block, s.align = block, l.Alignment()

	a := memory.NewArena(block)
	s.bindPose = memory.Carve[mathutil.SoaTransform](a, numSoa)
	s.names = memory.Carve[uint32](a, numJoints)
	s.props = memory.Carve[JointProperties](a, numJoints)
	s.chars = memory.Carve[byte](a, charsCount)
	return nil
}
