// Package synth generates procedural authoring skeletons and clips. Motion is
// shaped with gween easing curves sampled at a fixed key rate.
package synth

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"skelpack/internal/mathutil"
	"skelpack/internal/raw"
)

// Chain returns a single-chain skeleton of n joints, each offset by length
// along +Y from its parent.
func Chain(n int, length float32) *raw.Skeleton {
	if n <= 0 {
		return &raw.Skeleton{}
	}
	joints := make([]raw.Joint, n)
	for i := range joints {
		joints[i].Name = fmt.Sprintf("joint%d", i)
		joints[i].Transform = mathutil.IdentityTransform()
		if i > 0 {
			joints[i].Transform.Translation = mgl32.Vec3{0, length, 0}
		}
	}
	for i := n - 1; i > 0; i-- {
		joints[i-1].Children = []raw.Joint{joints[i]}
	}
	return &raw.Skeleton{Roots: []raw.Joint{joints[0]}}
}

// Options shapes a Swing clip.
type Options struct {
	Name     string
	Duration float32 // seconds, > 0
	KeyRate  float32 // keys per second per half cycle

	// Swing is the peak rotation in radians of every joint about Z, reached
	// at mid clip.
	Swing float32
	// Bob is the peak vertical offset of the root.
	Bob float32
	// Length is the bind translation of non-root joints, kept in the clip.
	Length float32

	// Ease shapes both halves of the motion. Nil means ease.InOutSine.
	Ease ease.TweenFunc
}

// DefaultOptions is a two-second, 30 keys per second swing.
func DefaultOptions() Options {
	return Options{
		Name:     "swing",
		Duration: 2,
		KeyRate:  30,
		Swing:    mathutil.Deg2Rad(30),
		Bob:      0.1,
		Length:   1,
		Ease:     ease.InOutSine,
	}
}

// Swing returns a clip for a Chain of numJoints joints: every joint rotates
// from rest to Swing and back while the root rises by Bob and returns.
// Joint j peaks at Swing/(j+1).
func Swing(numJoints int, o Options) (*raw.Animation, error) {
	if !(o.Duration > 0) || !(o.KeyRate > 0) {
		return nil, fmt.Errorf("synth: duration %v and key rate %v must be positive", o.Duration, o.KeyRate)
	}
	fn := o.Ease
	if fn == nil {
		fn = ease.InOutSine
	}

	half := o.Duration / 2
	steps := max(1, int(half*o.KeyRate))
	times := make([]float32, 2*steps+1)
	for i := range times {
		times[i] = o.Duration * float32(i) / float32(2*steps)
	}
	times[len(times)-1] = o.Duration

	a := &raw.Animation{Name: o.Name, Duration: o.Duration, Tracks: make([]raw.JointTrack, numJoints)}
	for j := range a.Tracks {
		tr := &a.Tracks[j]
		amp := o.Swing / float32(j+1)
		angles := pingPong(0, amp, half, steps, fn)
		for i, t := range times {
			tr.Rotations = append(tr.Rotations, raw.RotationKey{Time: t, Value: mathutil.RotZ(angles[i])})
		}
		if j == 0 {
			heights := pingPong(0, o.Bob, half, steps, fn)
			for i, t := range times {
				tr.Translations = append(tr.Translations, raw.TranslationKey{Time: t, Value: mgl32.Vec3{0, heights[i], 0}})
			}
		} else {
			rest := mgl32.Vec3{0, o.Length, 0}
			tr.Translations = []raw.TranslationKey{{Time: 0, Value: rest}}
		}
	}
	if !a.Validate() {
		return nil, fmt.Errorf("synth: %w", raw.ErrInvalidAnimation)
	}
	return a, nil
}

// pingPong samples from -> to over duration, then back, with steps keys per
// half. It returns 2*steps+1 values.
func pingPong(from, to, duration float32, steps int, fn ease.TweenFunc) []float32 {
	out := sampleTween(gween.New(from, to, duration, fn), duration, steps)
	back := sampleTween(gween.New(to, from, duration, fn), duration, steps)
	return append(out, back[1:]...)
}

func sampleTween(tw *gween.Tween, duration float32, steps int) []float32 {
	out := make([]float32, steps+1)
	out[0], _ = tw.Update(0)
	dt := duration / float32(steps)
	for i := 1; i <= steps; i++ {
		out[i], _ = tw.Update(dt)
	}
	return out
}
