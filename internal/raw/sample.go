package raw

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"skelpack/internal/mathutil"
)

// SampleTrack interpolates the track at time. Times before the first key or
// after the last clamp to that key. A kind without keys yields its identity.
func SampleTrack(t *JointTrack, time float32) mathutil.Transform {
	out := mathutil.IdentityTransform()

	if n := len(t.Translations); n > 0 {
		i := sort.Search(n, func(i int) bool { return t.Translations[i].Time > time })
		switch {
		case i == 0:
			out.Translation = t.Translations[0].Value
		case i == n:
			out.Translation = t.Translations[n-1].Value
		default:
			out.Translation = LerpTranslation(t.Translations[i-1], t.Translations[i], time)
		}
	}

	if n := len(t.Rotations); n > 0 {
		i := sort.Search(n, func(i int) bool { return t.Rotations[i].Time > time })
		switch {
		case i == 0:
			out.Rotation = t.Rotations[0].Value
		case i == n:
			out.Rotation = t.Rotations[n-1].Value
		default:
			out.Rotation = LerpRotation(t.Rotations[i-1], t.Rotations[i], time)
		}
	}

	if n := len(t.Scales); n > 0 {
		i := sort.Search(n, func(i int) bool { return t.Scales[i].Time > time })
		switch {
		case i == 0:
			out.Scale = t.Scales[0].Value
		case i == n:
			out.Scale = t.Scales[n-1].Value
		default:
			out.Scale = LerpScale(t.Scales[i-1], t.Scales[i], time)
		}
	}

	return out
}

// SampleAnimation samples every track at time into out, which must hold at
// least NumTracks entries.
func SampleAnimation(a *Animation, time float32, out []mathutil.Transform) {
	for i := range a.Tracks {
		out[i] = SampleTrack(&a.Tracks[i], time)
	}
}

func ratio(t0, t1, t float32) float32 {
	if t1 <= t0 {
		return 0
	}
	return (t - t0) / (t1 - t0)
}

// LerpTranslation interpolates two translation keys at time.
func LerpTranslation(a, b TranslationKey, time float32) mgl32.Vec3 {
	return mathutil.Lerp3(a.Value, b.Value, ratio(a.Time, b.Time, time))
}

// LerpRotation interpolates two rotation keys at time along the shortest path.
func LerpRotation(a, b RotationKey, time float32) mgl32.Quat {
	return mathutil.Nlerp(a.Value, b.Value, ratio(a.Time, b.Time, time))
}

// LerpScale interpolates two scale keys at time.
func LerpScale(a, b ScaleKey, time float32) mgl32.Vec3 {
	return mathutil.Lerp3(a.Value, b.Value, ratio(a.Time, b.Time, time))
}
