package skeleton

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"skelpack/internal/mathutil"
	"skelpack/internal/memory"
	"skelpack/internal/raw"
)

// Builder converts authoring skeletons to runtime skeletons.
type Builder struct {
	// Allocator receives the single block of each built skeleton. Nil means
	// the Go heap.
	Allocator memory.Allocator
}

type flatJoint struct {
	joint  *raw.Joint
	parent *raw.Joint
}

// Build flattens s breadth first. It fails with raw.ErrInvalidSkeleton when s
// does not validate and never returns a partial skeleton.
func (b Builder) Build(s *raw.Skeleton) (*Skeleton, error) {
	if s == nil || !s.Validate() {
		return nil, fmt.Errorf("skeleton: build: %w", raw.ErrInvalidSkeleton)
	}

	var flat []flatJoint
	charsCount := 0
	s.IterateBF(func(j, parent *raw.Joint) {
		flat = append(flat, flatJoint{joint: j, parent: parent})
		charsCount += len(j.Name) + 1
	})

	out := New(b.Allocator)
	if err := out.allocate(len(flat), charsCount); err != nil {
		return nil, fmt.Errorf("skeleton: build: %w", err)
	}

	off := 0
	for i, f := range flat {
		out.names[i] = uint32(off)
		off += copy(out.chars[off:], f.joint.Name)
		out.chars[off] = 0
		off++

		parent := uint16(NoParent)
		if f.parent != nil {
			// Parents were emitted earlier, search backward from i.
			for p := i - 1; p >= 0; p-- {
				if flat[p].joint == f.parent {
					parent = uint16(p)
					break
				}
			}
		}
		out.props[i] = JointProperties{Parent: parent, IsLeaf: len(f.joint.Children) == 0}
	}

	for g := range out.bindPose {
		var group [4]mathutil.Transform
		for l := range group {
			i := g*4 + l
			if i >= len(flat) {
				group[l] = mathutil.IdentityTransform()
				continue
			}
			t := flat[i].joint.Transform
			t.Rotation = mathutil.NormalizeSafe(t.Rotation, mgl32.QuatIdent())
			group[l] = t
		}
		out.bindPose[g] = mathutil.PackSoa(group)
	}
	return out, nil
}
