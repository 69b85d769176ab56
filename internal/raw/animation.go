package raw

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidAnimation is returned by consumers of an animation that fails Validate.
var ErrInvalidAnimation = errors.New("raw: invalid animation")

// TranslationKey is a translation at a time in seconds.
type TranslationKey struct {
	Time  float32
	Value mgl32.Vec3
}

// RotationKey is a rotation at a time in seconds.
type RotationKey struct {
	Time  float32
	Value mgl32.Quat
}

// ScaleKey is a scale at a time in seconds.
type ScaleKey struct {
	Time  float32
	Value mgl32.Vec3
}

// JointTrack holds the keys animating one joint. Each slice is sorted by
// ascending time.
type JointTrack struct {
	Translations []TranslationKey
	Rotations    []RotationKey
	Scales       []ScaleKey
}

// Animation is an authoring clip. Tracks are indexed like the joints of the
// skeleton the clip targets.
type Animation struct {
	Name     string
	Duration float32
	Tracks   []JointTrack
}

// NumTracks returns the number of joint tracks.
func (a *Animation) NumTracks() int { return len(a.Tracks) }

// Validate reports whether the clip can be built: a positive duration, at
// most MaxJoints tracks, and key times strictly ascending within
// [0, Duration] for every track.
func (a *Animation) Validate() bool {
	if !(a.Duration > 0) || math.IsInf(float64(a.Duration), 0) {
		return false
	}
	if len(a.Tracks) > MaxJoints {
		return false
	}
	for i := range a.Tracks {
		if !a.Tracks[i].Validate(a.Duration) {
			return false
		}
	}
	return true
}

// Validate checks the key times of the track against duration.
func (t *JointTrack) Validate(duration float32) bool {
	return validTimes(len(t.Translations), func(i int) float32 { return t.Translations[i].Time }, duration) &&
		validTimes(len(t.Rotations), func(i int) float32 { return t.Rotations[i].Time }, duration) &&
		validTimes(len(t.Scales), func(i int) float32 { return t.Scales[i].Time }, duration)
}

func validTimes(n int, at func(int) float32, duration float32) bool {
	prev := float32(-1)
	for i := 0; i < n; i++ {
		t := at(i)
		if !(t >= 0) || t > duration || t <= prev {
			return false
		}
		prev = t
	}
	return true
}

// NumKeys returns the total key count of the track.
func (t *JointTrack) NumKeys() int {
	return len(t.Translations) + len(t.Rotations) + len(t.Scales)
}
