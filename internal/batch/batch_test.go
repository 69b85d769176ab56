package batch

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"

	"skelpack/internal/animation"
	"skelpack/internal/archive"
	"skelpack/internal/codec"
	"skelpack/internal/memory"
	"skelpack/internal/offline"
	"skelpack/internal/raw"
	"skelpack/internal/skeleton"
	"skelpack/internal/synth"
)

// writeFixtures lays out a skeleton and three clips: two JSON and one raw
// archive.
func writeFixtures(t *testing.T, joints int) string {
	t.Helper()
	dir := t.TempDir()
	if err := raw.WriteSkeletonJSON(filepath.Join(dir, "skeleton.json"), synth.Chain(joints, 1)); err != nil {
		t.Fatal(err)
	}

	walk := synth.DefaultOptions()
	walk.Name = "walk"
	run := synth.DefaultOptions()
	run.Name = "run"
	run.Duration = 1
	run.Swing *= 2
	for _, o := range []synth.Options{walk, run} {
		a, err := synth.Swing(joints, o)
		if err != nil {
			t.Fatal(err)
		}
		if err := raw.WriteAnimationJSON(filepath.Join(dir, o.Name+".json"), a); err != nil {
			t.Fatal(err)
		}
	}

	idle := synth.DefaultOptions()
	idle.Name = "idle"
	idle.Swing /= 4
	a, err := synth.Swing(joints, idle)
	if err != nil {
		t.Fatal(err)
	}
	f, err := archive.CreateFile(filepath.Join(dir, "idle.raw"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := archive.Save(archive.NewOArchive(f, codec.BigEndian), a); err != nil {
		t.Fatal(err)
	}

	// Not an animation: ignored by FindClips.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func testConfig(t *testing.T, dir string) Config {
	t.Helper()
	log := testr.New(t)
	return Config{
		OutputDir: filepath.Join(dir, "packed"),
		Skeleton:  filepath.Join(dir, "skeleton.json"),
		Skeletons: NewSkeletonCache(skeleton.Builder{}, log),
		Endian:    codec.LittleEndian,
		Optimize:  true,
		Optimizer: offline.NewOptimizer(),
		Workers:   2,
		Log:       log,
	}
}

func TestFindClips(t *testing.T) {
	dir := writeFixtures(t, 3)
	clips, err := FindClips(dir, filepath.Join(dir, "skeleton.json"))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, c := range clips {
		names = append(names, filepath.Base(c))
	}
	if got := strings.Join(names, ","); got != "idle.raw,run.json,walk.json" {
		t.Fatalf("clips = %s", got)
	}

	if _, err := FindClips(filepath.Join(dir, "missing"), ""); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestRun(t *testing.T) {
	dir := writeFixtures(t, 3)
	cfg := testConfig(t, dir)
	defer cfg.Skeletons.Close()

	clips, err := FindClips(dir, cfg.Skeleton)
	if err != nil {
		t.Fatal(err)
	}
	results := Run(cfg, clips)
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}

	for _, r := range results {
		if !r.Success {
			t.Fatalf("%s failed: %s", r.Name, r.Error)
		}
		if r.Tracks != 3 {
			t.Errorf("%s: tracks = %d", r.Name, r.Tracks)
		}
		if r.OutputKeys == 0 || r.OutputKeys > r.InputKeys {
			t.Errorf("%s: keys %d of %d", r.Name, r.OutputKeys, r.InputKeys)
		}
		if r.Output != filepath.Join(cfg.OutputDir, r.Name+Extension) {
			t.Errorf("%s: output %s", r.Name, r.Output)
		}

		data, err := os.ReadFile(r.Output)
		if err != nil {
			t.Fatal(err)
		}
		if len(data) != r.Bytes || xxhash.Sum64(data) != r.Digest {
			t.Errorf("%s: size or digest does not match the written file", r.Name)
		}

		anim, err := LoadAnimation(r.Output, animation.Builder{}, logr.Discard())
		if err != nil {
			t.Fatalf("%s: %v", r.Name, err)
		}
		if anim.Name() != r.Name || anim.NumTracks() != 3 {
			t.Errorf("%s: loaded %q with %d tracks", r.Name, anim.Name(), anim.NumTracks())
		}
		anim.Release()
	}

	s := Summarize(results)
	if s.Succeeded != 3 || s.Failed != 0 || s.Bytes == 0 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestRunDeterministic(t *testing.T) {
	dir := writeFixtures(t, 2)
	cfg := testConfig(t, dir)
	defer cfg.Skeletons.Close()
	clips := []string{filepath.Join(dir, "walk.json")}

	first := Run(cfg, clips)
	cfg.Workers = 1
	second := Run(cfg, clips)
	if !first[0].Success || first[0].Digest != second[0].Digest {
		t.Fatalf("digests differ across runs: %+v %+v", first[0], second[0])
	}
}

func TestRunAdditive(t *testing.T) {
	dir := writeFixtures(t, 3)
	cfg := testConfig(t, dir)
	defer cfg.Skeletons.Close()
	cfg.Additive = true
	cfg.Optimize = false

	results := Run(cfg, []string{filepath.Join(dir, "walk.json")})
	if !results[0].Success {
		t.Fatal(results[0].Error)
	}
	if results[0].OutputKeys != results[0].InputKeys {
		t.Fatalf("additive without optimization changed the key count: %d -> %d",
			results[0].InputKeys, results[0].OutputKeys)
	}
}

func TestRunFailures(t *testing.T) {
	dir := writeFixtures(t, 3)

	t.Run("track mismatch", func(t *testing.T) {
		if err := raw.WriteSkeletonJSON(filepath.Join(dir, "small.json"), synth.Chain(2, 1)); err != nil {
			t.Fatal(err)
		}
		cfg := testConfig(t, dir)
		defer cfg.Skeletons.Close()
		cfg.Skeleton = filepath.Join(dir, "small.json")
		results := Run(cfg, []string{filepath.Join(dir, "walk.json")})
		if results[0].Success || !strings.Contains(results[0].Error, offline.ErrTrackMismatch.Error()) {
			t.Fatalf("result = %+v", results[0])
		}
	})

	t.Run("missing skeleton", func(t *testing.T) {
		cfg := testConfig(t, dir)
		defer cfg.Skeletons.Close()
		cfg.Skeleton = filepath.Join(dir, "nope.json")
		results := Run(cfg, []string{filepath.Join(dir, "walk.json"), filepath.Join(dir, "run.json")})
		if s := Summarize(results); s.Failed != 2 {
			t.Fatalf("summary = %+v", s)
		}
	})

	t.Run("bad clip", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(bad, []byte(`{"duration": -1, "tracks": []}`), 0644); err != nil {
			t.Fatal(err)
		}
		cfg := testConfig(t, dir)
		defer cfg.Skeletons.Close()
		results := Run(cfg, []string{bad})
		if results[0].Success || results[0].Error == "" {
			t.Fatalf("result = %+v", results[0])
		}
	})
}

func TestManifest(t *testing.T) {
	dir := writeFixtures(t, 3)
	cfg := testConfig(t, dir)
	defer cfg.Skeletons.Close()

	results := Run(cfg, []string{filepath.Join(dir, "walk.json"), filepath.Join(dir, "nope.json")})
	m := NewManifest(cfg, results)
	if len(m.Clips) != 1 {
		t.Fatalf("manifest has %d clips", len(m.Clips))
	}
	e := m.Clips[0]
	if e.Name != "walk" || e.Archive != "walk"+Extension || len(e.Digest) != 16 || e.Size == "" {
		t.Fatalf("entry = %+v", e)
	}

	path := filepath.Join(dir, "manifest.json")
	if err := WriteManifest(path, m); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var back Manifest
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Endianness != "little" || len(back.Clips) != 1 || back.Clips[0] != e {
		t.Fatalf("round trip = %+v", back)
	}
}

func TestSkeletonCache(t *testing.T) {
	dir := writeFixtures(t, 3)
	alloc := memory.NewTrackingAllocator(nil)
	cache := NewSkeletonCache(skeleton.Builder{Allocator: alloc}, logr.Discard())

	path := filepath.Join(dir, "skeleton.json")
	a, err := cache.Resolve(path)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cache.Resolve(path)
	if err != nil {
		t.Fatal(err)
	}
	if a != b || a.NumJoints() != 3 {
		t.Fatalf("cache returned %p and %p", a, b)
	}

	missing := filepath.Join(dir, "missing.json")
	if _, err := cache.Resolve(missing); err == nil {
		t.Fatal("expected an error for a missing skeleton")
	}
	if _, err := cache.Resolve(missing); err == nil {
		t.Fatal("expected the cached error")
	}

	cache.Close()
	if n := alloc.Outstanding(); n != 0 {
		t.Fatalf("%d blocks outstanding after Close", n)
	}
}

func TestLoadSkeletonArchives(t *testing.T) {
	dir := t.TempDir()
	rs := synth.Chain(4, 1)

	rawPath := filepath.Join(dir, "chain.rawskel")
	saveFile(t, rawPath, rs)
	s, err := LoadSkeleton(rawPath, skeleton.Builder{}, logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if s.NumJoints() != 4 {
		t.Fatalf("joints = %d", s.NumJoints())
	}

	runtimePath := filepath.Join(dir, "chain.skel")
	saveFile(t, runtimePath, s)
	loaded, err := LoadSkeleton(runtimePath, skeleton.Builder{}, logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if loaded.NumJoints() != 4 || loaded.JointName(3) != s.JointName(3) {
		t.Fatalf("loaded %d joints, last %q", loaded.NumJoints(), loaded.JointName(3))
	}

	// A runtime skeleton is not an authoring one.
	if _, err := LoadRawSkeleton(runtimePath, logr.Discard()); !errors.Is(err, archive.ErrTagMismatch) {
		t.Fatalf("err = %v, want ErrTagMismatch", err)
	}
}

func saveFile(t *testing.T, path string, e archive.Encoder) {
	t.Helper()
	f, err := archive.CreateFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := archive.Save(archive.NewOArchive(f, archive.Native), e); err != nil {
		t.Fatal(err)
	}
}
