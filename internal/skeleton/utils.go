package skeleton

import (
	"bytes"

	"skelpack/internal/mathutil"
)

// IterateJointsDF visits the descendants of from depth first, parents before
// children, calling fn with the joint and its parent index. from == NoParent
// visits the whole skeleton.
func (s *Skeleton) IterateJointsDF(from int, fn func(joint, parent int)) {
	if from == NoParent {
		for i := range s.props {
			if s.props[i].Parent == NoParent {
				s.iterateDF(i, fn)
			}
		}
		return
	}
	if from < 0 || from >= s.NumJoints() {
		return
	}
	s.iterateDF(from, fn)
}

func (s *Skeleton) iterateDF(joint int, fn func(joint, parent int)) {
	fn(joint, s.Parent(joint))
	// Children always follow their parent.
	for c := joint + 1; c < len(s.props); c++ {
		if int(s.props[c].Parent) == joint {
			s.iterateDF(c, fn)
		}
	}
}

// Children returns the direct children of joint i in joint order.
func (s *Skeleton) Children(i int) []int {
	var out []int
	if s.props[i].IsLeaf {
		return out
	}
	for c := i + 1; c < len(s.props); c++ {
		if int(s.props[c].Parent) == i {
			out = append(out, c)
		}
	}
	return out
}

// FindJoint returns the index of the first joint named name, or -1.
func (s *Skeleton) FindJoint(name string) int {
	for i := range s.props {
		if bytes.Equal(s.nameBytes(i), []byte(name)) {
			return i
		}
	}
	return -1
}

// JointLocalBindPose returns the bind-pose transform of joint i relative to
// its parent.
func (s *Skeleton) JointLocalBindPose(i int) mathutil.Transform {
	return s.bindPose[i/4].Lane(i % 4)
}
