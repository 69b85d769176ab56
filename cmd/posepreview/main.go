package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-logr/stdr"

	"skelpack/internal/animation"
	"skelpack/internal/batch"
	"skelpack/internal/config"
	"skelpack/internal/job"
	"skelpack/internal/mathutil"
	"skelpack/internal/preview"
	"skelpack/internal/skeleton"
)

var views = map[string]preview.View{
	"front": preview.Front,
	"side":  preview.Side,
	"top":   preview.Top,
}

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	skeletonPath := flag.String("skeleton", "", "Skeleton file (JSON or archive)")
	animPath := flag.String("anim", "", "Clip to sample (JSON or archive); empty renders the bind pose")
	at := flag.Float64("time", 0, "Sample time in seconds")
	outPath := flag.String("out", "", "Output image (default: <clip>.<format>)")
	size := flag.Int("size", 0, "Output size in pixels")
	view := flag.String("view", "front", "Projection: front, side or top")
	format := flag.String("format", "", "Image format: webp or tga")
	flag.Parse()

	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags))

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Resolve(config.Flags{Skeleton: *skeletonPath})
	if *size > 0 {
		cfg.PreviewSize = *size
	}
	if *format != "" {
		cfg.PreviewFormat = *format
	}

	f, err := preview.ParseFormat(cfg.PreviewFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	v, ok := views[strings.ToLower(*view)]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown view %q\n", *view)
		os.Exit(1)
	}

	skel, err := batch.LoadSkeleton(cfg.Skeleton, skeleton.Builder{}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading skeleton: %v\n", err)
		os.Exit(1)
	}
	defer skel.Release()

	locals := skel.BindPose()
	name := "bindpose"
	if *animPath != "" {
		anim, err := batch.LoadAnimation(*animPath, animation.Builder{}, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading clip: %v\n", err)
			os.Exit(1)
		}
		defer anim.Release()

		locals = make([]mathutil.SoaTransform, anim.NumSoaTracks())
		sampling := job.SamplingJob{
			Animation: anim,
			Context:   job.NewSamplingContext(anim.NumTracks()),
			Ratio:     float32(*at) / anim.Duration(),
			Output:    locals,
		}
		if err := sampling.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error sampling: %v\n", err)
			os.Exit(1)
		}
		name = strings.TrimSuffix(filepath.Base(*animPath), filepath.Ext(*animPath))
		fmt.Printf("Clip %q: %.3fs of %.3fs, %d tracks\n", anim.Name(), *at, anim.Duration(), anim.NumTracks())
	}

	models := make([]mgl32.Mat4, skel.NumJoints())
	ltm := job.LocalToModelJob{Skeleton: skel, Input: locals, Output: models}
	if err := ltm.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := preview.DefaultOptions()
	opts.Size = cfg.PreviewSize
	opts.Supersample = cfg.Supersample
	opts.View = v
	img := preview.Render(skel, models, opts)

	if *outPath == "" {
		*outPath = name + "." + string(f)
	}
	if err := preview.WriteFile(*outPath, img, f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%dx%d, %d joints)\n", *outPath, img.Bounds().Dx(), img.Bounds().Dy(), skel.NumJoints())
}
