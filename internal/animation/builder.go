package animation

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"skelpack/internal/codec"
	"skelpack/internal/mathutil"
	"skelpack/internal/memory"
	"skelpack/internal/raw"
)

// Builder converts authoring clips to compressed runtime clips.
type Builder struct {
	// Allocator receives the single block of each built clip. Nil means the
	// Go heap.
	Allocator memory.Allocator
}

type vecKey struct {
	time  float32
	track int
	value mgl32.Vec3
}

type quatKey struct {
	time  float32
	track int
	value mgl32.Quat
}

// Build compresses a. It fails with raw.ErrInvalidAnimation when a does not
// validate and never returns a partial clip.
//
// Every track ends up with at least two keys per component spanning
// [0, duration]: missing components get identity keys and the first and last
// keys are repeated at the clip bounds.
func (b Builder) Build(a *raw.Animation) (*Animation, error) {
	if a == nil || !a.Validate() {
		return nil, fmt.Errorf("animation: build: %w", raw.ErrInvalidAnimation)
	}

	var translations, scales []vecKey
	var rotations []quatKey
	for i := range a.Tracks {
		tr := &a.Tracks[i]
		translations = appendVecKeys(translations, i, a.Duration, len(tr.Translations),
			func(k int) (float32, mgl32.Vec3) { return tr.Translations[k].Time, tr.Translations[k].Value },
			mgl32.Vec3{})
		scales = appendVecKeys(scales, i, a.Duration, len(tr.Scales),
			func(k int) (float32, mgl32.Vec3) { return tr.Scales[k].Time, tr.Scales[k].Value },
			mgl32.Vec3{1, 1, 1})
		rotations = appendQuatKeys(rotations, i, a.Duration, tr.Rotations)
	}

	slices.SortFunc(translations, compareVec)
	slices.SortFunc(scales, compareVec)
	slices.SortFunc(rotations, func(x, y quatKey) int {
		return cmp.Or(cmp.Compare(x.time, y.time), cmp.Compare(x.track, y.track))
	})

	out := New(b.Allocator)
	if err := out.allocate(len(a.Name), len(translations), len(rotations), len(scales)); err != nil {
		return nil, fmt.Errorf("animation: build: %w", err)
	}
	out.duration = a.Duration
	out.numTracks = len(a.Tracks)
	copy(out.name, a.Name)
	for i, k := range translations {
		out.translations[i] = Float3Key{Time: k.time, Track: uint16(k.track), Value: codec.CompressFloat3(k.value)}
	}
	for i, k := range scales {
		out.scales[i] = Float3Key{Time: k.time, Track: uint16(k.track), Value: codec.CompressFloat3(k.value)}
	}
	for i, k := range rotations {
		out.rotations[i] = newQuatKey(k.time, k.track, k.value)
	}
	return out, nil
}

func compareVec(x, y vecKey) int {
	return cmp.Or(cmp.Compare(x.time, y.time), cmp.Compare(x.track, y.track))
}

func appendVecKeys(dst []vecKey, track int, duration float32, n int, at func(int) (float32, mgl32.Vec3), identity mgl32.Vec3) []vecKey {
	if n == 0 {
		return append(dst, vecKey{0, track, identity}, vecKey{duration, track, identity})
	}
	if t, v := at(0); t != 0 {
		dst = append(dst, vecKey{0, track, v})
	}
	for k := 0; k < n; k++ {
		t, v := at(k)
		dst = append(dst, vecKey{t, track, v})
	}
	if t, v := at(n - 1); t != duration {
		dst = append(dst, vecKey{duration, track, v})
	}
	return dst
}

// appendQuatKeys normalizes rotations and keeps consecutive keys of the track
// in the same hemisphere so interpolation takes the shortest path.
func appendQuatKeys(dst []quatKey, track int, duration float32, keys []raw.RotationKey) []quatKey {
	identity := mgl32.QuatIdent()
	if len(keys) == 0 {
		return append(dst, quatKey{0, track, identity}, quatKey{duration, track, identity})
	}
	prev := identity
	push := func(t float32, q mgl32.Quat) {
		q = mathutil.NormalizeSafe(q, identity)
		if prev.Dot(q) < 0 {
			q = mathutil.Negate(q)
		}
		dst = append(dst, quatKey{t, track, q})
		prev = q
	}
	if keys[0].Time != 0 {
		push(0, keys[0].Value)
	}
	for _, k := range keys {
		push(k.Time, k.Value)
	}
	if last := keys[len(keys)-1]; last.Time != duration {
		push(duration, last.Value)
	}
	return dst
}
