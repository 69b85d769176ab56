package animation

import (
	"bytes"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-logr/logr/testr"

	"skelpack/internal/archive"
	"skelpack/internal/codec"
	"skelpack/internal/mathutil"
	"skelpack/internal/memory"
	"skelpack/internal/raw"
)

func rawWalk() *raw.Animation {
	return &raw.Animation{
		Name:     "walk",
		Duration: 1,
		Tracks: []raw.JointTrack{
			{
				Translations: []raw.TranslationKey{{0, mgl32.Vec3{0, 1, 0}}, {0.5, mgl32.Vec3{0, 1.5, 0}}, {1, mgl32.Vec3{0, 1, 0}}},
				Rotations:    []raw.RotationKey{{0.25, mathutil.RotY(0.5)}, {0.75, mathutil.Negate(mathutil.RotY(1))}},
			},
			{Scales: []raw.ScaleKey{{0, mgl32.Vec3{2, 2, 2}}}},
			{},
		},
	}
}

func TestKeysSortedAndPadded(t *testing.T) {
	a, err := Builder{}.Build(rawWalk())
	if err != nil {
		t.Fatal(err)
	}
	if a.Name() != "walk" || a.Duration() != 1 || a.NumTracks() != 3 || a.NumSoaTracks() != 1 {
		t.Fatalf("header = %q %v %d", a.Name(), a.Duration(), a.NumTracks())
	}

	// Track 0 keeps its 3 translations, tracks 1 and 2 get 2 identity keys.
	if n := len(a.Translations()); n != 7 {
		t.Errorf("translation keys = %d, want 7", n)
	}
	// Track 0 rotations are padded at both ends.
	if n := len(a.Rotations()); n != 8 {
		t.Errorf("rotation keys = %d, want 8", n)
	}
	if n := len(a.Scales()); n != 6 {
		t.Errorf("scale keys = %d, want 6", n)
	}

	keys := a.Translations()
	for i := 1; i < len(keys); i++ {
		p, k := keys[i-1], keys[i]
		if k.Time < p.Time || (k.Time == p.Time && k.Track <= p.Track) {
			t.Fatalf("keys %d and %d out of order: %+v %+v", i-1, i, p, k)
		}
	}
	rots := a.Rotations()
	for i := 1; i < len(rots); i++ {
		p, k := rots[i-1], rots[i]
		if k.Time < p.Time || (k.Time == p.Time && k.Track() <= p.Track()) {
			t.Fatalf("rotation keys %d and %d out of order", i-1, i)
		}
	}

	// The padded last scale of track 1 repeats its only key.
	last := a.Scales()[len(a.Scales())-2]
	if last.Track != 1 || last.Time != 1 || last.Decompress() != (mgl32.Vec3{2, 2, 2}) {
		t.Errorf("padded scale key = %+v", last)
	}
}

func TestRotationHemisphere(t *testing.T) {
	a, err := Builder{}.Build(rawWalk())
	if err != nil {
		t.Fatal(err)
	}
	var track0 []mgl32.Quat
	for i := range a.Rotations() {
		k := &a.Rotations()[i]
		if k.Track() == 0 {
			track0 = append(track0, k.Decompress())
		}
	}
	if len(track0) != 4 {
		t.Fatalf("track 0 rotation keys = %d", len(track0))
	}
	for i := 1; i < len(track0); i++ {
		if track0[i-1].Dot(track0[i]) < 0 {
			t.Errorf("keys %d and %d in opposite hemispheres", i-1, i)
		}
	}
	if ang := mathutil.AngleBetween(track0[2], mathutil.RotY(1)); ang > 5e-3 {
		t.Errorf("flipped key changed rotation by %v", ang)
	}
}

func TestQuatKeyBits(t *testing.T) {
	for track := 0; track <= MaxTracks; track += 341 {
		q := mathutil.NormalizeSafe(mgl32.Quat{W: -0.2, V: mgl32.Vec3{0.1, 0.9, -0.3}}, mgl32.QuatIdent())
		k := newQuatKey(0, track, q)
		if k.Track() != track {
			t.Errorf("track = %d, want %d", k.Track(), track)
		}
		if k.Largest() != 1 || k.Sign() {
			t.Errorf("largest = %d sign = %v, want 1 false", k.Largest(), k.Sign())
		}
		if d := 1 - abs(k.Decompress().Dot(q)); d > 1e-3 {
			t.Errorf("dequantized rotation off by %v", d)
		}
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func randomClip(r *rand.Rand, tracks int) *raw.Animation {
	a := &raw.Animation{Name: "random", Duration: 3}
	a.Tracks = make([]raw.JointTrack, tracks)
	for i := range a.Tracks {
		n := r.Intn(5)
		for k := 0; k < n; k++ {
			tm := float32(k) * 0.7
			v := mgl32.Vec3{r.Float32()*4 - 2, r.Float32()*4 - 2, r.Float32()*4 - 2}
			a.Tracks[i].Translations = append(a.Tracks[i].Translations, raw.TranslationKey{Time: tm, Value: v})
			q := mathutil.NormalizeSafe(mgl32.Quat{W: r.Float32()*2 - 1, V: v}, mgl32.QuatIdent())
			a.Tracks[i].Rotations = append(a.Tracks[i].Rotations, raw.RotationKey{Time: tm, Value: q})
			a.Tracks[i].Scales = append(a.Tracks[i].Scales, raw.ScaleKey{Time: tm, Value: v.Mul(0.5)})
		}
	}
	return a
}

func TestArchiveBitIdentical(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	built, err := Builder{}.Build(randomClip(r, 9))
	if err != nil {
		t.Fatal(err)
	}
	for _, endian := range []codec.Endianness{codec.LittleEndian, codec.BigEndian, archive.Native} {
		t.Run(endian.String(), func(t *testing.T) {
			first := archive.NewMemoryStream(nil)
			if err := archive.Save(archive.NewOArchive(first, endian), built); err != nil {
				t.Fatal(err)
			}

			alloc := memory.NewTrackingAllocator(nil)
			loaded := New(alloc)
			first.Seek(0, 0)
			if err := archive.Load(archive.NewIArchive(first), loaded); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(loaded.Translations(), built.Translations()) ||
				!reflect.DeepEqual(loaded.Rotations(), built.Rotations()) ||
				!reflect.DeepEqual(loaded.Scales(), built.Scales()) {
				t.Fatal("keys differ after round trip")
			}
			if loaded.Name() != built.Name() || loaded.Duration() != built.Duration() || loaded.NumTracks() != built.NumTracks() {
				t.Fatal("header differs after round trip")
			}

			second := archive.NewMemoryStream(nil)
			if err := archive.Save(archive.NewOArchive(second, endian), loaded); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(first.Bytes(), second.Bytes()) {
				t.Error("re-saved archive differs")
			}

			loaded.Release()
			if err := alloc.Close(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestArchiveUnsupportedVersion(t *testing.T) {
	built, err := Builder{}.Build(rawWalk())
	if err != nil {
		t.Fatal(err)
	}
	ms := archive.NewMemoryStream(nil)
	o := archive.NewOArchive(ms, archive.Native)
	o.WriteCString(Tag)
	o.WriteUint32(3)
	built.Save(o)

	loaded := New(nil)
	ms.Seek(0, 0)
	err = archive.Load(archive.NewIArchive(ms, archive.WithLogger(testr.New(t))), loaded)
	if !errors.Is(err, archive.ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
	if loaded.NumTracks() != 0 || loaded.Duration() != 0 || len(loaded.Translations()) != 0 || loaded.Size() != 0 {
		t.Error("clip not empty after rejected load")
	}
}

func TestArchiveRejectsTrackOutOfRange(t *testing.T) {
	ms := archive.NewMemoryStream(nil)
	o := archive.NewOArchive(ms, archive.Native)
	o.WriteCString(Tag)
	o.WriteUint32(version)
	o.WriteFloat32(1)
	o.WriteInt32(1) // tracks
	o.WriteInt32(0) // name
	o.WriteInt32(1)
	o.WriteInt32(0)
	o.WriteInt32(0)
	saveFloat3Keys(o, []Float3Key{{Time: 0, Track: 4}})

	loaded := New(nil)
	ms.Seek(0, 0)
	if err := archive.Load(archive.NewIArchive(ms), loaded); !errors.Is(err, archive.ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
	if len(loaded.Translations()) != 0 {
		t.Error("clip not empty after failed load")
	}
}

func TestBuildRejectsInvalid(t *testing.T) {
	bad := rawWalk()
	bad.Tracks[0].Translations[1].Time = 2
	a, err := Builder{}.Build(bad)
	if !errors.Is(err, raw.ErrInvalidAnimation) || a != nil {
		t.Fatalf("Build = %v, %v", a, err)
	}
}

func TestReleaseReturnsBlock(t *testing.T) {
	alloc := memory.NewTrackingAllocator(nil)
	a, err := Builder{Allocator: alloc}.Build(rawWalk())
	if err != nil {
		t.Fatal(err)
	}
	if alloc.Outstanding() != 1 {
		t.Fatalf("outstanding = %d", alloc.Outstanding())
	}
	a.Release()
	a.Release()
	if err := alloc.Close(); err != nil {
		t.Fatal(err)
	}
}
