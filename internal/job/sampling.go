package job

import (
	"fmt"

	"skelpack/internal/animation"
	"skelpack/internal/mathutil"
)

// trackIndex lists, for each track, the positions of its keys in one of the
// animation key arrays, plus a cursor on the key preceding the last sampled
// time.
type trackIndex struct {
	start  []int32 // len tracks+1
	keys   []int32
	cursor []int32
}

func (x *trackIndex) build(numTracks int, count int, track func(int) int) {
	x.start = resize(x.start, numTracks+1)
	x.cursor = resize(x.cursor, numTracks)
	x.keys = resize(x.keys, count)
	clear(x.start)
	clear(x.cursor)
	for k := 0; k < count; k++ {
		x.start[track(k)+1]++
	}
	for t := 0; t < numTracks; t++ {
		x.start[t+1] += x.start[t]
	}
	fill := make([]int32, numTracks)
	copy(fill, x.start[:numTracks])
	// Keys are sorted by time, so each track's list is too.
	for k := 0; k < count; k++ {
		t := track(k)
		x.keys[fill[t]] = int32(k)
		fill[t]++
	}
}

func resize(s []int32, n int) []int32 {
	if cap(s) < n {
		return make([]int32, n)
	}
	return s[:n]
}

// seek returns the keys surrounding time for track t. ok is false when the
// track has no key; a track with one key returns it twice.
func (x *trackIndex) seek(t int, time float32, at func(int32) float32) (left, right int32, ok bool) {
	list := x.keys[x.start[t]:x.start[t+1]]
	switch len(list) {
	case 0:
		return 0, 0, false
	case 1:
		return list[0], list[0], true
	}
	c := x.cursor[t]
	if at(list[c]) > time {
		c = 0
	}
	for int(c)+2 < len(list) && at(list[c+1]) <= time {
		c++
	}
	x.cursor[t] = c
	return list[c], list[c+1], true
}

// SamplingContext holds the per-track cursors that make forward playback
// incremental. A context belongs to one goroutine; it rebinds itself when
// sampled with a different clip.
type SamplingContext struct {
	maxTracks int
	anim      *animation.Animation

	translations trackIndex
	rotations    trackIndex
	scales       trackIndex
}

// NewSamplingContext returns a context able to sample clips of up to
// maxTracks tracks.
func NewSamplingContext(maxTracks int) *SamplingContext {
	return &SamplingContext{maxTracks: maxTracks}
}

// MaxTracks returns the capacity of the context.
func (c *SamplingContext) MaxTracks() int { return c.maxTracks }

// Invalidate drops the bound clip. Call it when a clip is reloaded in place.
func (c *SamplingContext) Invalidate() { c.anim = nil }

func (c *SamplingContext) bind(a *animation.Animation) {
	if c.anim == a {
		return
	}
	c.anim = a
	n := a.NumTracks()
	tr, rt, sc := a.Translations(), a.Rotations(), a.Scales()
	c.translations.build(n, len(tr), func(k int) int { return int(tr[k].Track) })
	c.rotations.build(n, len(rt), func(k int) int { return rt[k].Track() })
	c.scales.build(n, len(sc), func(k int) int { return int(sc[k].Track) })
}

// SamplingJob decompresses a clip at a normalized time into local transforms.
type SamplingJob struct {
	Animation *animation.Animation
	Context   *SamplingContext

	// Ratio is the time in [0, 1] relative to the clip duration. Values
	// outside are clamped.
	Ratio float32

	// Output receives SoA local transforms, at least NumSoaTracks groups.
	// Lanes past the last track are set to identity.
	Output []mathutil.SoaTransform
}

// Validate reports whether Run can proceed.
func (j *SamplingJob) Validate() bool {
	if j.Animation == nil || j.Context == nil || j.Output == nil {
		return false
	}
	return j.Context.maxTracks >= j.Animation.NumTracks() && len(j.Output) >= j.Animation.NumSoaTracks()
}

// Run executes the job.
func (j *SamplingJob) Run() error {
	if !j.Validate() {
		return fmt.Errorf("job: sampling: %w", ErrInvalidJob)
	}
	a, c := j.Animation, j.Context
	c.bind(a)
	time := mathutil.Clamp(j.Ratio, 0, 1) * a.Duration()

	tr, rt, sc := a.Translations(), a.Rotations(), a.Scales()
	trTime := func(k int32) float32 { return tr[k].Time }
	rtTime := func(k int32) float32 { return rt[k].Time }
	scTime := func(k int32) float32 { return sc[k].Time }

	for g := 0; g < a.NumSoaTracks(); g++ {
		j.Output[g] = mathutil.SoaIdentity()
		for l := 0; l < 4; l++ {
			t := g*4 + l
			if t >= a.NumTracks() {
				break
			}
			out := mathutil.IdentityTransform()
			if left, right, ok := c.translations.seek(t, time, trTime); ok {
				out.Translation = mathutil.Lerp3(tr[left].Decompress(), tr[right].Decompress(),
					alpha(tr[left].Time, tr[right].Time, time))
			}
			if left, right, ok := c.rotations.seek(t, time, rtTime); ok {
				out.Rotation = mathutil.Nlerp(rt[left].Decompress(), rt[right].Decompress(),
					alpha(rt[left].Time, rt[right].Time, time))
			}
			if left, right, ok := c.scales.seek(t, time, scTime); ok {
				out.Scale = mathutil.Lerp3(sc[left].Decompress(), sc[right].Decompress(),
					alpha(sc[left].Time, sc[right].Time, time))
			}
			j.Output[g].SetLane(l, out)
		}
	}
	return nil
}

func alpha(t0, t1, t float32) float32 {
	if t1 <= t0 {
		return 0
	}
	return mathutil.Clamp((t-t0)/(t1-t0), 0, 1)
}

// SampleAoS runs the job and unpacks the result into one transform per track.
func (j *SamplingJob) SampleAoS(out []mathutil.Transform) error {
	if err := j.Run(); err != nil {
		return err
	}
	for t := 0; t < j.Animation.NumTracks() && t < len(out); t++ {
		out[t] = j.Output[t/4].Lane(t % 4)
	}
	return nil
}
