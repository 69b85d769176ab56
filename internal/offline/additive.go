package offline

import (
	"fmt"

	"skelpack/internal/mathutil"
	"skelpack/internal/raw"
)

// AdditiveBuilder converts a clip to deltas that can be blended on top of
// another pose.
type AdditiveBuilder struct {
	// Reference holds one pose per track the deltas are computed against.
	// Nil uses the first key of each track component.
	Reference []mathutil.Transform
}

// Build returns the additive version of in. Key times are kept. Translation
// deltas are t - t0, rotation deltas conj(q0) * q and scale deltas s / s0.
func (b AdditiveBuilder) Build(in *raw.Animation) (*raw.Animation, error) {
	if in == nil || !in.Validate() {
		return nil, fmt.Errorf("offline: additive: %w", raw.ErrInvalidAnimation)
	}
	if b.Reference != nil && len(b.Reference) != in.NumTracks() {
		return nil, fmt.Errorf("offline: additive: %w: %d reference poses for %d tracks",
			ErrTrackMismatch, len(b.Reference), in.NumTracks())
	}

	out := &raw.Animation{Name: in.Name, Duration: in.Duration}
	if len(in.Tracks) > 0 {
		out.Tracks = make([]raw.JointTrack, len(in.Tracks))
	}
	for i := range in.Tracks {
		src, dst := &in.Tracks[i], &out.Tracks[i]

		if len(src.Translations) > 0 {
			ref := src.Translations[0].Value
			if b.Reference != nil {
				ref = b.Reference[i].Translation
			}
			dst.Translations = make([]raw.TranslationKey, len(src.Translations))
			for k, key := range src.Translations {
				dst.Translations[k] = raw.TranslationKey{Time: key.Time, Value: key.Value.Sub(ref)}
			}
		}

		if len(src.Rotations) > 0 {
			ref := src.Rotations[0].Value
			if b.Reference != nil {
				ref = b.Reference[i].Rotation
			}
			inv := ref.Conjugate()
			dst.Rotations = make([]raw.RotationKey, len(src.Rotations))
			for k, key := range src.Rotations {
				dst.Rotations[k] = raw.RotationKey{Time: key.Time, Value: inv.Mul(key.Value)}
			}
		}

		if len(src.Scales) > 0 {
			ref := src.Scales[0].Value
			if b.Reference != nil {
				ref = b.Reference[i].Scale
			}
			dst.Scales = make([]raw.ScaleKey, len(src.Scales))
			for k, key := range src.Scales {
				dst.Scales[k] = raw.ScaleKey{Time: key.Time, Value: mathutil.Div3(key.Value, ref)}
			}
		}
	}
	return out, nil
}
