// Package raw holds the authoring forms of skeletons and animations: plain,
// editable structures that are validated but not compressed.
package raw

import (
	"errors"
	"strings"

	"skelpack/internal/mathutil"
)

// MaxJoints is the largest number of joints a skeleton may hold. Parent
// indices are stored on 10 bits and MaxJoints itself is the no-parent marker.
const MaxJoints = 1<<10 - 1

// ErrInvalidSkeleton is returned by consumers of a skeleton that fails Validate.
var ErrInvalidSkeleton = errors.New("raw: invalid skeleton")

// Joint is a node of the authoring hierarchy. Children are owned.
type Joint struct {
	Name      string
	Transform mathutil.Transform // bind pose, relative to the parent
	Children  []Joint
}

// Skeleton is the authoring hierarchy: a forest of joints.
type Skeleton struct {
	Roots []Joint
}

// Validate reports whether the skeleton can be built: at most MaxJoints
// joints, and no NUL byte in any name since runtime names are NUL-terminated.
func (s *Skeleton) Validate() bool {
	n, ok := 0, true
	s.IterateDF(func(j, _ *Joint) {
		n++
		ok = ok && strings.IndexByte(j.Name, 0) < 0
	})
	return ok && n <= MaxJoints
}

// NumJoints counts every joint of the hierarchy.
func (s *Skeleton) NumJoints() int {
	n := 0
	s.IterateDF(func(*Joint, *Joint) { n++ })
	return n
}

// IterateDF visits joints depth first, parents before children. parent is nil
// for roots.
func (s *Skeleton) IterateDF(fn func(joint, parent *Joint)) {
	var visit func(js []Joint, parent *Joint)
	visit = func(js []Joint, parent *Joint) {
		for i := range js {
			fn(&js[i], parent)
			visit(js[i].Children, &js[i])
		}
	}
	visit(s.Roots, nil)
}

// IterateBF visits joints breadth first: all roots, then all their children,
// and so on. parent is nil for roots.
func (s *Skeleton) IterateBF(fn func(joint, parent *Joint)) {
	type entry struct{ joint, parent *Joint }
	queue := make([]entry, 0, len(s.Roots))
	for i := range s.Roots {
		queue = append(queue, entry{&s.Roots[i], nil})
	}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		fn(e.joint, e.parent)
		for i := range e.joint.Children {
			queue = append(queue, entry{&e.joint.Children[i], e.joint})
		}
	}
}
