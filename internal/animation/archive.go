package animation

import (
	"fmt"
	"math"

	"skelpack/internal/archive"
)

const (
	Tag     = "skelpack-animation"
	version = 4

	keySize = 4 + 2 + 3*2
)

var (
	_ archive.Encoder = (*Animation)(nil)
	_ archive.Decoder = (*Animation)(nil)
)

func (a *Animation) Tag() string     { return Tag }
func (a *Animation) Version() uint32 { return version }

// Save writes the header, the name and the three key arrays.
func (a *Animation) Save(o *archive.OArchive) {
	o.WriteFloat32(a.duration)
	o.WriteInt32(int32(a.numTracks))
	o.WriteInt32(int32(len(a.name)))
	o.WriteInt32(int32(len(a.translations)))
	o.WriteInt32(int32(len(a.rotations)))
	o.WriteInt32(int32(len(a.scales)))
	o.WriteBytes(a.name)
	saveFloat3Keys(o, a.translations)
	for i := range a.rotations {
		k := &a.rotations[i]
		o.WriteFloat32(k.Time)
		o.WriteUint16(k.Bits)
		o.WriteInt16(k.Value[0])
		o.WriteInt16(k.Value[1])
		o.WriteInt16(k.Value[2])
	}
	saveFloat3Keys(o, a.scales)
}

func saveFloat3Keys(o *archive.OArchive, keys []Float3Key) {
	for i := range keys {
		k := &keys[i]
		o.WriteFloat32(k.Time)
		o.WriteUint16(k.Track)
		o.WriteUint16(k.Value[0])
		o.WriteUint16(k.Value[1])
		o.WriteUint16(k.Value[2])
	}
}

// Load replaces a with the clip in the archive. On error a is empty.
func (a *Animation) Load(i *archive.IArchive, v uint32) error {
	a.Release()
	if v != version {
		return archive.RejectVersion(i, Tag, v, version)
	}
	if err := a.load(i); err != nil {
		a.Release()
		return fmt.Errorf("animation: load: %w", err)
	}
	return nil
}

func (a *Animation) load(i *archive.IArchive) error {
	duration := i.ReadFloat32()
	numTracks := int(i.ReadInt32())
	nameLen := int(i.ReadInt32())
	nt := int(i.ReadInt32())
	nr := int(i.ReadInt32())
	ns := int(i.ReadInt32())
	if err := i.Err(); err != nil {
		return err
	}
	if !(duration > 0) || math.IsInf(float64(duration), 0) {
		return fmt.Errorf("%w: duration %v", archive.ErrCorrupt, duration)
	}
	if numTracks < 0 || numTracks > MaxTracks {
		return fmt.Errorf("%w: %d tracks", archive.ErrCorrupt, numTracks)
	}
	if nameLen < 0 || nt < 0 || nr < 0 || ns < 0 ||
		int64(nameLen)+(int64(nt)+int64(nr)+int64(ns))*keySize > i.Remaining() {
		return fmt.Errorf("%w: key counts exceed stream", archive.ErrCorrupt)
	}

	if err := a.allocate(nameLen, nt, nr, ns); err != nil {
		return err
	}
	a.duration = duration
	a.numTracks = numTracks

	i.ReadBytes(a.name)
	loadFloat3Keys(i, a.translations)
	for j := range a.rotations {
		a.rotations[j] = QuatKey{
			Time:  i.ReadFloat32(),
			Bits:  i.ReadUint16(),
			Value: [3]int16{i.ReadInt16(), i.ReadInt16(), i.ReadInt16()},
		}
	}
	loadFloat3Keys(i, a.scales)
	if err := i.Err(); err != nil {
		return err
	}

	for j := range a.translations {
		if int(a.translations[j].Track) >= numTracks {
			return fmt.Errorf("%w: translation key for track %d", archive.ErrCorrupt, a.translations[j].Track)
		}
	}
	for j := range a.rotations {
		if a.rotations[j].Track() >= numTracks {
			return fmt.Errorf("%w: rotation key for track %d", archive.ErrCorrupt, a.rotations[j].Track())
		}
	}
	for j := range a.scales {
		if int(a.scales[j].Track) >= numTracks {
			return fmt.Errorf("%w: scale key for track %d", archive.ErrCorrupt, a.scales[j].Track)
		}
	}
	return nil
}

func loadFloat3Keys(i *archive.IArchive, keys []Float3Key) {
	for j := range keys {
		keys[j] = Float3Key{
			Time:  i.ReadFloat32(),
			Track: i.ReadUint16(),
			Value: [3]uint16{i.ReadUint16(), i.ReadUint16(), i.ReadUint16()},
		}
	}
}
