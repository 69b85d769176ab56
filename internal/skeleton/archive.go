package skeleton

import (
	"fmt"

	"skelpack/internal/archive"
	"skelpack/internal/mathutil"
)

const (
	Tag     = "skelpack-skeleton"
	version = 1
)

var (
	_ archive.Encoder = (*Skeleton)(nil)
	_ archive.Decoder = (*Skeleton)(nil)
)

func (s *Skeleton) Tag() string     { return Tag }
func (s *Skeleton) Version() uint32 { return version }

// Save writes the joint count, then names, properties and bind pose.
func (s *Skeleton) Save(a *archive.OArchive) {
	a.WriteInt32(int32(s.NumJoints()))
	if s.NumJoints() == 0 {
		return
	}
	a.WriteInt32(int32(len(s.chars)))
	a.WriteBytes(s.chars)
	for _, p := range s.props {
		a.WriteUint16(p.Parent)
		a.WriteBool(p.IsLeaf)
	}
	for i := range s.bindPose {
		saveSoaTransform(a, &s.bindPose[i])
	}
}

// Load replaces s with the skeleton in the archive. On error s is empty.
func (s *Skeleton) Load(a *archive.IArchive, v uint32) error {
	s.Release()
	if v != version {
		return archive.RejectVersion(a, Tag, v, version)
	}
	if err := s.load(a); err != nil {
		s.Release()
		return fmt.Errorf("skeleton: load: %w", err)
	}
	return nil
}

func (s *Skeleton) load(a *archive.IArchive) error {
	numJoints := int(a.ReadInt32())
	if err := a.Err(); err != nil {
		return err
	}
	if numJoints == 0 {
		return nil
	}
	if numJoints < 0 || numJoints > MaxJoints {
		return fmt.Errorf("%w: %d joints", archive.ErrCorrupt, numJoints)
	}
	charsCount := a.ReadCount(1)
	if err := a.Err(); err != nil {
		return err
	}
	if err := s.allocate(numJoints, charsCount); err != nil {
		return err
	}

	a.ReadBytes(s.chars)
	if err := a.Err(); err != nil {
		return err
	}
	if err := s.indexNames(); err != nil {
		return err
	}
	for i := range s.props {
		s.props[i] = JointProperties{Parent: a.ReadUint16(), IsLeaf: a.ReadBool()}
	}
	for i := range s.bindPose {
		loadSoaTransform(a, &s.bindPose[i])
	}
	if err := a.Err(); err != nil {
		return err
	}
	for i, p := range s.props {
		if p.Parent != NoParent && int(p.Parent) >= i {
			return fmt.Errorf("%w: joint %d has parent %d", archive.ErrCorrupt, i, p.Parent)
		}
	}
	return nil
}

// indexNames rebuilds the name offsets from the NUL separators.
func (s *Skeleton) indexNames() error {
	n, start := 0, 0
	for i, c := range s.chars {
		if c != 0 {
			continue
		}
		if n == len(s.names) {
			return fmt.Errorf("%w: too many joint names", archive.ErrCorrupt)
		}
		s.names[n] = uint32(start)
		n++
		start = i + 1
	}
	if n != len(s.names) || start != len(s.chars) {
		return fmt.Errorf("%w: %d joint names for %d joints", archive.ErrCorrupt, n, len(s.names))
	}
	return nil
}

func saveSoaTransform(a *archive.OArchive, t *mathutil.SoaTransform) {
	for _, lanes := range [...]*[4]float32{
		&t.Translation.X, &t.Translation.Y, &t.Translation.Z,
		&t.Rotation.X, &t.Rotation.Y, &t.Rotation.Z, &t.Rotation.W,
		&t.Scale.X, &t.Scale.Y, &t.Scale.Z,
	} {
		for _, v := range lanes {
			a.WriteFloat32(v)
		}
	}
}

func loadSoaTransform(a *archive.IArchive, t *mathutil.SoaTransform) {
	for _, lanes := range [...]*[4]float32{
		&t.Translation.X, &t.Translation.Y, &t.Translation.Z,
		&t.Rotation.X, &t.Rotation.Y, &t.Rotation.Z, &t.Rotation.W,
		&t.Scale.X, &t.Scale.Y, &t.Scale.Z,
	} {
		for l := range lanes {
			lanes[l] = a.ReadFloat32()
		}
	}
}
