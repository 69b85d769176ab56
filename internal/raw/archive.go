package raw

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"skelpack/internal/archive"
	"skelpack/internal/mathutil"
)

const (
	SkeletonTag      = "skelpack-raw_skeleton"
	skeletonVersion  = 1
	AnimationTag     = "skelpack-raw_animation"
	animationVersion = 1

	transformSize = 10 * 4
)

var (
	_ archive.Encoder = (*Skeleton)(nil)
	_ archive.Decoder = (*Skeleton)(nil)
	_ archive.Encoder = (*Animation)(nil)
	_ archive.Decoder = (*Animation)(nil)
)

func (s *Skeleton) Tag() string     { return SkeletonTag }
func (s *Skeleton) Version() uint32 { return skeletonVersion }

// Save writes the hierarchy as nested, count-prefixed joint lists.
func (s *Skeleton) Save(a *archive.OArchive) {
	saveJoints(a, s.Roots)
}

func saveJoints(a *archive.OArchive, joints []Joint) {
	a.WriteCount(len(joints))
	for i := range joints {
		a.WriteString(joints[i].Name)
		saveTransform(a, joints[i].Transform)
		saveJoints(a, joints[i].Children)
	}
}

// Load replaces s with the hierarchy in the archive.
func (s *Skeleton) Load(a *archive.IArchive, version uint32) error {
	*s = Skeleton{}
	if version != skeletonVersion {
		return archive.RejectVersion(a, SkeletonTag, version, skeletonVersion)
	}
	budget := MaxJoints
	roots := loadJoints(a, &budget)
	if err := a.Err(); err != nil {
		return fmt.Errorf("raw: load skeleton: %w", err)
	}
	s.Roots = roots
	return nil
}

// loadJoints stops once more than MaxJoints joints were read so a corrupt
// stream cannot recurse without bound.
func loadJoints(a *archive.IArchive, budget *int) []Joint {
	n := a.ReadCount(4 + transformSize + 4)
	if n == 0 {
		return nil
	}
	if n > *budget {
		a.Fail(fmt.Errorf("%w: more than %d joints", archive.ErrCorrupt, MaxJoints))
		return nil
	}
	*budget -= n
	joints := make([]Joint, n)
	for i := range joints {
		joints[i].Name = a.ReadString()
		joints[i].Transform = loadTransform(a)
		joints[i].Children = loadJoints(a, budget)
		if a.Err() != nil {
			return nil
		}
	}
	return joints
}

func saveTransform(a *archive.OArchive, t mathutil.Transform) {
	saveFloat3(a, t.Translation)
	saveQuat(a, t.Rotation)
	saveFloat3(a, t.Scale)
}

func loadTransform(a *archive.IArchive) mathutil.Transform {
	return mathutil.Transform{
		Translation: loadFloat3(a),
		Rotation:    loadQuat(a),
		Scale:       loadFloat3(a),
	}
}

func saveFloat3(a *archive.OArchive, v mgl32.Vec3) {
	a.WriteFloat32(v[0])
	a.WriteFloat32(v[1])
	a.WriteFloat32(v[2])
}

func loadFloat3(a *archive.IArchive) mgl32.Vec3 {
	return mgl32.Vec3{a.ReadFloat32(), a.ReadFloat32(), a.ReadFloat32()}
}

// saveQuat writes (x, y, z, w).
func saveQuat(a *archive.OArchive, q mgl32.Quat) {
	saveFloat3(a, q.V)
	a.WriteFloat32(q.W)
}

func loadQuat(a *archive.IArchive) mgl32.Quat {
	v := loadFloat3(a)
	return mgl32.Quat{W: a.ReadFloat32(), V: v}
}

func (an *Animation) Tag() string     { return AnimationTag }
func (an *Animation) Version() uint32 { return animationVersion }

// Save writes duration, name, then each track's three key lists.
func (an *Animation) Save(a *archive.OArchive) {
	a.WriteFloat32(an.Duration)
	a.WriteString(an.Name)
	a.WriteCount(len(an.Tracks))
	for i := range an.Tracks {
		tr := &an.Tracks[i]
		a.WriteCount(len(tr.Translations))
		for _, k := range tr.Translations {
			a.WriteFloat32(k.Time)
			saveFloat3(a, k.Value)
		}
		a.WriteCount(len(tr.Rotations))
		for _, k := range tr.Rotations {
			a.WriteFloat32(k.Time)
			saveQuat(a, k.Value)
		}
		a.WriteCount(len(tr.Scales))
		for _, k := range tr.Scales {
			a.WriteFloat32(k.Time)
			saveFloat3(a, k.Value)
		}
	}
}

// Load replaces an with the clip in the archive.
func (an *Animation) Load(a *archive.IArchive, version uint32) error {
	*an = Animation{}
	if version != animationVersion {
		return archive.RejectVersion(a, AnimationTag, version, animationVersion)
	}
	var out Animation
	out.Duration = a.ReadFloat32()
	out.Name = a.ReadString()
	out.Tracks = makeSlice[JointTrack](a.ReadCount(12))
	for i := range out.Tracks {
		tr := &out.Tracks[i]
		tr.Translations = makeSlice[TranslationKey](a.ReadCount(16))
		for j := range tr.Translations {
			tr.Translations[j] = TranslationKey{Time: a.ReadFloat32(), Value: loadFloat3(a)}
		}
		tr.Rotations = makeSlice[RotationKey](a.ReadCount(20))
		for j := range tr.Rotations {
			tr.Rotations[j] = RotationKey{Time: a.ReadFloat32(), Value: loadQuat(a)}
		}
		tr.Scales = makeSlice[ScaleKey](a.ReadCount(16))
		for j := range tr.Scales {
			tr.Scales[j] = ScaleKey{Time: a.ReadFloat32(), Value: loadFloat3(a)}
		}
		if a.Err() != nil {
			break
		}
	}
	if err := a.Err(); err != nil {
		return fmt.Errorf("raw: load animation: %w", err)
	}
	*an = out
	return nil
}

// makeSlice keeps empty lists nil so a save/load cycle is lossless.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, n)
}
