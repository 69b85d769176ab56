// Package job holds the runtime jobs: sampling a compressed clip into local
// transforms and composing local transforms into model-space matrices.
package job

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"skelpack/internal/mathutil"
	"skelpack/internal/skeleton"
)

// ErrInvalidJob is returned by Run when Validate fails.
var ErrInvalidJob = errors.New("job: invalid job")

// Range restricts a LocalToModelJob to part of the skeleton.
type Range struct {
	// From is the joint whose subtree is updated, itself included. NoParent
	// selects every joint; any other value must be a joint index.
	From int
	// To is the last joint updated.
	To int
}

// LocalToModelJob computes model-space matrices from local transforms. Joints
// are processed in skeleton order, which places parents before children, so
// each parent matrix is ready when its children need it.
type LocalToModelJob struct {
	Skeleton *skeleton.Skeleton

	// Root premultiplies root joints. Nil means identity.
	Root *mgl32.Mat4

	// Range limits the joints updated. Nil updates every joint. Joints outside
	// the range keep their Output value and may still serve as parents.
	Range *Range

	// Input holds local transforms in SoA groups, at least NumSoaJoints.
	Input []mathutil.SoaTransform

	// Output receives one matrix per joint, at least NumJoints.
	Output []mgl32.Mat4
}

// Validate reports whether Run can proceed.
func (j *LocalToModelJob) Validate() bool {
	if j.Skeleton == nil || j.Input == nil || j.Output == nil {
		return false
	}
	if j.Range != nil && j.Range.From != skeleton.NoParent &&
		(j.Range.From < 0 || j.Range.From >= j.Skeleton.NumJoints()) {
		return false
	}
	return len(j.Input) >= j.Skeleton.NumSoaJoints() && len(j.Output) >= j.Skeleton.NumJoints()
}

// Run executes the job.
func (j *LocalToModelJob) Run() error {
	if !j.Validate() {
		return fmt.Errorf("job: local to model: %w", ErrInvalidJob)
	}

	root := mgl32.Ident4()
	if j.Root != nil {
		root = *j.Root
	}
	from, to := skeleton.NoParent, skeleton.MaxJoints
	if j.Range != nil {
		from, to = j.Range.From, j.Range.To
	}

	n := j.Skeleton.NumJoints()
	end := min(to+1, n)
	begin := 0
	if from != skeleton.NoParent {
		begin = from
	}

	// subtree marks the joints below from that were updated.
	var subtree [(skeleton.MaxJoints + 64) / 64]uint64
	mark := func(i int) { subtree[i/64] |= 1 << (i % 64) }
	marked := func(i int) bool { return subtree[i/64]&(1<<(i%64)) != 0 }

	props := j.Skeleton.JointProperties()
	group := -1
	var locals [4]mgl32.Mat4
	for i := begin; i < end; i++ {
		parent := int(props[i].Parent)
		if from != skeleton.NoParent {
			if i != from && (parent == skeleton.NoParent || !marked(parent)) {
				continue
			}
			mark(i)
		}

		if g := i / 4; g != group {
			m := mathutil.SoaMatrixFromAffine(&j.Input[g])
			locals = mathutil.Transpose16x16(&m)
			group = g
		}

		if parent == skeleton.NoParent {
			j.Output[i] = root.Mul4(locals[i%4])
		} else {
			j.Output[i] = j.Output[parent].Mul4(locals[i%4])
		}
	}
	return nil
}
