package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"skelpack/internal/animation"
	"skelpack/internal/archive"
	"skelpack/internal/raw"
	"skelpack/internal/skeleton"
)

func main() {
	keys := flag.Bool("keys", false, "Print every key of runtime animations")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: inspectanim [-keys] <archive>...")
		os.Exit(2)
	}

	logger := stdr.New(log.New(os.Stderr, "", 0))
	failed := false
	for _, path := range flag.Args() {
		if err := inspect(path, *keys, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			failed = true
		}
		fmt.Println()
	}
	if failed {
		os.Exit(1)
	}
}

func inspect(path string, keys bool, logger logr.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s, xxhash64 %016x\n", path, humanize.Bytes(uint64(len(data))), xxhash.Sum64(data))

	ia := archive.NewIArchive(archive.NewMemoryStream(data), archive.WithLogger(logger))
	fmt.Printf("  Byte order: %s\n", ia.Endianness())

	switch {
	case ia.TestTag(raw.SkeletonTag):
		var s raw.Skeleton
		if err := archive.Load(ia, &s); err != nil {
			return err
		}
		printRawSkeleton(&s)
	case ia.TestTag(raw.AnimationTag):
		var a raw.Animation
		if err := archive.Load(ia, &a); err != nil {
			return err
		}
		printRawAnimation(&a)
	case ia.TestTag(skeleton.Tag):
		s := skeleton.New(nil)
		defer s.Release()
		if err := archive.Load(ia, s); err != nil {
			return err
		}
		printSkeleton(s)
	case ia.TestTag(animation.Tag):
		a := animation.New(nil)
		defer a.Release()
		if err := archive.Load(ia, a); err != nil {
			return err
		}
		printAnimation(a, keys)
	default:
		return fmt.Errorf("unknown archive tag")
	}
	return nil
}

func printRawSkeleton(s *raw.Skeleton) {
	fmt.Printf("  Raw skeleton: %d joints, %d roots\n", s.NumJoints(), len(s.Roots))
	var walk func(j *raw.Joint, depth int)
	walk = func(j *raw.Joint, depth int) {
		t := j.Transform.Translation
		fmt.Printf("  %s%s  T(%.3f, %.3f, %.3f)\n", strings.Repeat("  ", depth+1), j.Name, t[0], t[1], t[2])
		for i := range j.Children {
			walk(&j.Children[i], depth+1)
		}
	}
	for i := range s.Roots {
		walk(&s.Roots[i], 0)
	}
}

func printRawAnimation(a *raw.Animation) {
	fmt.Printf("  Raw animation %q: duration %.3fs, %d tracks\n", a.Name, a.Duration, a.NumTracks())
	for i := range a.Tracks {
		t := &a.Tracks[i]
		fmt.Printf("    Track[%d]: T=%d R=%d S=%d\n", i, len(t.Translations), len(t.Rotations), len(t.Scales))
	}
}

func printSkeleton(s *skeleton.Skeleton) {
	fmt.Printf("  Skeleton: %d joints, %d SoA groups\n", s.NumJoints(), s.NumSoaJoints())
	depth := make([]int, s.NumJoints())
	s.IterateJointsDF(skeleton.NoParent, func(joint, parent int) {
		if parent != skeleton.NoParent {
			depth[joint] = depth[parent] + 1
		}
		t := s.JointLocalBindPose(joint).Translation
		leaf := ""
		if s.IsLeaf(joint) {
			leaf = " (leaf)"
		}
		fmt.Printf("  %s[%d] %s%s  T(%.3f, %.3f, %.3f)\n",
			strings.Repeat("  ", depth[joint]+1), joint, s.JointName(joint), leaf, t[0], t[1], t[2])
	})
}

func printAnimation(a *animation.Animation, keys bool) {
	fmt.Printf("  Animation %q: duration %.3fs, %d tracks, %s in memory\n",
		a.Name(), a.Duration(), a.NumTracks(), humanize.Bytes(uint64(a.Size())))
	fmt.Printf("  Keys: translations=%d rotations=%d scales=%d\n",
		len(a.Translations()), len(a.Rotations()), len(a.Scales()))

	perTrack := make([][3]int, a.NumTracks())
	for _, k := range a.Translations() {
		perTrack[k.Track][0]++
	}
	for _, k := range a.Rotations() {
		perTrack[k.Track()][1]++
	}
	for _, k := range a.Scales() {
		perTrack[k.Track][2]++
	}
	for i, c := range perTrack {
		fmt.Printf("    Track[%d]: T=%d R=%d S=%d\n", i, c[0], c[1], c[2])
	}

	if !keys {
		return
	}
	for _, k := range a.Translations() {
		v := k.Decompress()
		fmt.Printf("    T t=%.4f track=%d (%.4f, %.4f, %.4f)\n", k.Time, k.Track, v[0], v[1], v[2])
	}
	for _, k := range a.Rotations() {
		q := k.Decompress()
		fmt.Printf("    R t=%.4f track=%d (%.4f, %.4f, %.4f, %.4f)\n", k.Time, k.Track(), q.V[0], q.V[1], q.V[2], q.W)
	}
	for _, k := range a.Scales() {
		v := k.Decompress()
		fmt.Printf("    S t=%.4f track=%d (%.4f, %.4f, %.4f)\n", k.Time, k.Track, v[0], v[1], v[2])
	}
}
