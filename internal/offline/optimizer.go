// Package offline holds the authoring-to-authoring passes run before a clip
// is compressed: key-frame reduction and additive conversion.
package offline

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"skelpack/internal/mathutil"
	"skelpack/internal/raw"
	"skelpack/internal/skeleton"
)

// ErrTrackMismatch is returned when a clip and the skeleton or reference pose
// it is processed against disagree on the number of tracks.
var ErrTrackMismatch = errors.New("offline: track count mismatch")

// Optimizer strips keys that interpolation of their neighbours reproduces
// within tolerance. Tolerances are not checked.
type Optimizer struct {
	// TranslationTolerance is the distance allowed on a joint's own translation.
	TranslationTolerance float32
	// RotationTolerance is the angle in radians allowed on a joint's own rotation.
	RotationTolerance float32
	// ScaleTolerance is the difference allowed on a joint's own scale.
	ScaleTolerance float32
	// HierarchicalTolerance is the distance allowed at the end of the joint's
	// longest descendant chain.
	HierarchicalTolerance float32
}

// NewOptimizer returns an optimizer with the default tolerances: 1mm,
// 0.1 degree, 0.1% scale and 1mm at chain ends.
func NewOptimizer() Optimizer {
	return Optimizer{
		TranslationTolerance:  1e-3,
		RotationTolerance:     mathutil.Deg2Rad(0.1),
		ScaleTolerance:        1e-3,
		HierarchicalTolerance: 1e-3,
	}
}

// jointSpec bounds how far an error on a joint travels down the hierarchy.
type jointSpec struct {
	length float32 // longest descendant chain, in the joint's scaled space
	scale  float32 // scale inherited from the ancestors
}

// Optimize returns a reduced copy of in. The clip must hold one track per
// joint of s. On error no clip is returned.
func (o Optimizer) Optimize(in *raw.Animation, s *skeleton.Skeleton) (*raw.Animation, error) {
	if in == nil || !in.Validate() {
		return nil, fmt.Errorf("offline: optimize: %w", raw.ErrInvalidAnimation)
	}
	if s == nil || in.NumTracks() != s.NumJoints() {
		return nil, fmt.Errorf("offline: optimize: %w", ErrTrackMismatch)
	}

	specs := hierarchySpecs(in, s)
	out := &raw.Animation{Name: in.Name, Duration: in.Duration}
	if len(in.Tracks) > 0 {
		out.Tracks = make([]raw.JointTrack, len(in.Tracks))
	}
	for i := range in.Tracks {
		src, spec := &in.Tracks[i], specs[i]
		out.Tracks[i] = raw.JointTrack{
			Translations: filter(src.Translations, func(a, b, k *raw.TranslationKey) bool {
				d := mathutil.Dist3(raw.LerpTranslation(*a, *b, k.Time), k.Value)
				return d <= o.TranslationTolerance && d*spec.scale <= o.HierarchicalTolerance
			}),
			Rotations: filter(src.Rotations, func(a, b, k *raw.RotationKey) bool {
				angle := mathutil.AngleBetween(raw.LerpRotation(*a, *b, k.Time), k.Value)
				arc := float32(math.Sin(float64(min(angle, mathutil.Pi/2)))) * spec.length * spec.scale
				return angle <= o.RotationTolerance && arc <= o.HierarchicalTolerance
			}),
			Scales: filter(src.Scales, func(a, b, k *raw.ScaleKey) bool {
				d := mathutil.MaxAbs3(raw.LerpScale(*a, *b, k.Time).Sub(k.Value))
				return d <= o.ScaleTolerance && d*spec.length*spec.scale <= o.HierarchicalTolerance
			}),
		}
	}
	return out, nil
}

// hierarchySpecs walks the skeleton from the roots. Scale accumulates the
// largest scale of every ancestor; length is the longest chain of child
// translations below the joint, leaves having none.
func hierarchySpecs(a *raw.Animation, s *skeleton.Skeleton) []jointSpec {
	n := s.NumJoints()
	specs := make([]jointSpec, n)
	maxScale := make([]float32, n)
	maxTranslation := make([]float32, n)
	for i := range a.Tracks {
		maxScale[i] = trackMaxScale(&a.Tracks[i], s.JointLocalBindPose(i).Scale)
		maxTranslation[i] = trackMaxTranslation(&a.Tracks[i], s.JointLocalBindPose(i).Translation)
	}

	// Parents precede children.
	for i := 0; i < n; i++ {
		specs[i].scale = 1
		if p := s.Parent(i); p != skeleton.NoParent {
			specs[i].scale = specs[p].scale * maxScale[p]
		}
	}
	for i := n - 1; i >= 0; i-- {
		if p := s.Parent(i); p != skeleton.NoParent {
			chain := (specs[i].length + maxTranslation[i]) * maxScale[p]
			specs[p].length = max(specs[p].length, chain)
		}
	}
	return specs
}

func trackMaxScale(t *raw.JointTrack, bind mgl32.Vec3) float32 {
	if len(t.Scales) == 0 {
		return mathutil.MaxAbs3(bind)
	}
	var m float32
	for _, k := range t.Scales {
		m = max(m, mathutil.MaxAbs3(k.Value))
	}
	return m
}

func trackMaxTranslation(t *raw.JointTrack, bind mgl32.Vec3) float32 {
	if len(t.Translations) == 0 {
		return bind.Len()
	}
	var m float32
	for _, k := range t.Translations {
		m = max(m, k.Value.Len())
	}
	return m
}

// filter keeps the first and last key. An interior key is dropped when every
// key since the last kept one is reproduced by interpolating between that
// kept key and the key after the candidate.
func filter[K any](keys []K, reproduced func(anchor, next, key *K) bool) []K {
	if len(keys) <= 2 {
		return append([]K(nil), keys...)
	}
	out := []K{keys[0]}
	last := 0
	for i := 1; i < len(keys)-1; i++ {
		for j := last + 1; j <= i; j++ {
			if !reproduced(&keys[last], &keys[i+1], &keys[j]) {
				out = append(out, keys[i])
				last = i
				break
			}
		}
	}
	return append(out, keys[len(keys)-1])
}
