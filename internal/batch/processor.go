package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"

	"skelpack/internal/animation"
	"skelpack/internal/archive"
	"skelpack/internal/codec"
	"skelpack/internal/mathutil"
	"skelpack/internal/offline"
	"skelpack/internal/raw"
)

// Extension is the file extension of packed runtime clips.
const Extension = ".anim"

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir string
	Skeleton  string
	Skeletons *SkeletonCache
	Endian    codec.Endianness
	Optimize  bool
	Optimizer offline.Optimizer
	Additive  bool
	// Reference is the pose additive deltas are taken against. Nil uses
	// the first key of each track.
	Reference []mathutil.Transform
	Builder   animation.Builder
	Workers   int
	Log       logr.Logger
}

// Result holds the outcome of packing one clip.
type Result struct {
	Name       string
	Input      string
	Output     string
	Tracks     int
	InputKeys  int
	OutputKeys int
	Bytes      int
	Digest     uint64
	Success    bool
	Error      string
}

// FindClips lists the authoring clips in dir: JSON files and raw animation
// archives. The skeleton file is skipped.
func FindClips(dir, skeletonPath string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("batch: list %s: %w", dir, err)
	}
	skip, _ := filepath.Abs(skeletonPath)
	var clips []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if abs, _ := filepath.Abs(path); abs == skip {
			continue
		}
		if isJSON(path) || isRawAnimation(path) {
			clips = append(clips, path)
		}
	}
	sort.Strings(clips)
	return clips, nil
}

func isRawAnimation(path string) bool {
	f, err := archive.OpenFile(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return archive.NewIArchive(f).TestTag(raw.AnimationTag)
}

// Run packs all clips using a worker pool.
func Run(cfg Config, clips []string) []Result {
	total := len(clips)
	results := make([]Result, total)
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					cfg.Log.Info("progress", "done", p, "total", total,
						"rate", fmt.Sprintf("%.1f clips/sec", float64(p)/elapsed))
				}
			}
		}
	}()

	// Worker pool
	clipChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range clipChan {
				results[idx] = processClip(cfg, clips[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range clips {
		clipChan <- i
	}
	close(clipChan)

	wg.Wait()
	close(done)
	<-stopped

	return results
}

func clipName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, ".anim")
}

func processClip(cfg Config, path string) Result {
	res := Result{Name: clipName(path), Input: path}
	log := cfg.Log.WithValues("clip", res.Name)

	fail := func(err error) Result {
		log.Error(err, "clip failed")
		res.Error = err.Error()
		return res
	}

	in, err := LoadRawAnimation(path, log)
	if err != nil {
		return fail(err)
	}
	if in.Name == "" {
		in.Name = res.Name
	}
	res.Tracks = in.NumTracks()
	res.InputKeys = countKeys(in)

	skel, err := cfg.Skeletons.Resolve(cfg.Skeleton)
	if err != nil {
		return fail(err)
	}
	if skel.NumJoints() != in.NumTracks() {
		return fail(fmt.Errorf("%w: %d tracks, %d joints", offline.ErrTrackMismatch, in.NumTracks(), skel.NumJoints()))
	}

	if cfg.Additive {
		if in, err = (offline.AdditiveBuilder{Reference: cfg.Reference}).Build(in); err != nil {
			return fail(err)
		}
	}
	if cfg.Optimize {
		if in, err = cfg.Optimizer.Optimize(in, skel); err != nil {
			return fail(err)
		}
	}
	res.OutputKeys = countKeys(in)

	anim, err := cfg.Builder.Build(in)
	if err != nil {
		return fail(err)
	}
	defer anim.Release()

	ms := archive.NewMemoryStream(nil)
	if err := archive.Save(archive.NewOArchive(ms, cfg.Endian), anim); err != nil {
		return fail(err)
	}
	data := ms.Bytes()

	res.Output = filepath.Join(cfg.OutputDir, res.Name+Extension)
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fail(err)
	}
	if err := os.WriteFile(res.Output, data, 0644); err != nil {
		return fail(fmt.Errorf("batch: write %s: %w", res.Output, err))
	}

	res.Bytes = len(data)
	res.Digest = xxhash.Sum64(data)
	res.Success = true
	log.V(1).Info("packed", "keys", res.OutputKeys, "of", res.InputKeys,
		"size", humanize.Bytes(uint64(res.Bytes)))
	return res
}

func countKeys(a *raw.Animation) int {
	n := 0
	for i := range a.Tracks {
		n += a.Tracks[i].NumKeys()
	}
	return n
}

// Summary aggregates a run for the final log line.
type Summary struct {
	Succeeded  int
	Failed     int
	InputKeys  int
	OutputKeys int
	Bytes      int
}

// Summarize totals results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if !r.Success {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.InputKeys += r.InputKeys
		s.OutputKeys += r.OutputKeys
		s.Bytes += r.Bytes
	}
	return s
}

// Log writes the summary as a single structured line.
func (s Summary) Log(log logr.Logger, elapsed time.Duration) {
	log.Info("batch complete",
		"succeeded", s.Succeeded,
		"failed", s.Failed,
		"keys", s.OutputKeys,
		"authored_keys", s.InputKeys,
		"size", humanize.Bytes(uint64(s.Bytes)),
		"elapsed", elapsed.Round(time.Millisecond).String())
}
