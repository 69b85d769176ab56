package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tanema/gween/ease"

	"skelpack/internal/mathutil"
	"skelpack/internal/raw"
	"skelpack/internal/synth"
)

var curves = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"inoutsine":  ease.InOutSine,
	"inoutquad":  ease.InOutQuad,
	"inoutcubic": ease.InOutCubic,
	"outcubic":   ease.OutCubic,
	"outbounce":  ease.OutBounce,
}

func main() {
	defaults := synth.DefaultOptions()

	outDir := flag.String("output", ".", "Directory to write skeleton.json and the clip into")
	joints := flag.Int("joints", 8, "Number of joints in the chain")
	name := flag.String("name", defaults.Name, "Clip name, also the file name")
	duration := flag.Float64("duration", float64(defaults.Duration), "Clip duration in seconds")
	rate := flag.Float64("rate", float64(defaults.KeyRate), "Keys per second")
	swing := flag.Float64("swing", 30, "Peak swing in degrees")
	bob := flag.Float64("bob", float64(defaults.Bob), "Peak root rise")
	length := flag.Float64("length", float64(defaults.Length), "Bone length")
	curve := flag.String("ease", "inoutsine", "Easing curve: linear, inoutsine, inoutquad, inoutcubic, outcubic or outbounce")
	flag.Parse()

	fn, ok := curves[strings.ToLower(*curve)]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown easing curve %q\n", *curve)
		os.Exit(1)
	}
	if *joints < 1 || *joints > raw.MaxJoints {
		fmt.Fprintf(os.Stderr, "Error: joints must be in [1, %d]\n", raw.MaxJoints)
		os.Exit(1)
	}

	opts := synth.Options{
		Name:     *name,
		Duration: float32(*duration),
		KeyRate:  float32(*rate),
		Swing:    mathutil.Deg2Rad(float32(*swing)),
		Bob:      float32(*bob),
		Length:   float32(*length),
		Ease:     fn,
	}
	clip, err := synth.Swing(*joints, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	skelPath := filepath.Join(*outDir, "skeleton.json")
	if err := raw.WriteSkeletonJSON(skelPath, synth.Chain(*joints, opts.Length)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	clipPath := filepath.Join(*outDir, opts.Name+".json")
	if err := raw.WriteAnimationJSON(clipPath, clip); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	keys := 0
	for i := range clip.Tracks {
		keys += clip.Tracks[i].NumKeys()
	}
	fmt.Printf("Skeleton: %s (%d joints)\n", skelPath, *joints)
	fmt.Printf("Clip: %s (%.2fs, %d keys)\n", clipPath, opts.Duration, keys)
}
