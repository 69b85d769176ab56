package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-logr/stdr"

	"skelpack/internal/batch"
	"skelpack/internal/config"
	"skelpack/internal/skeleton"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	inputDir := flag.String("input", "", "Directory of authoring clips (default: auto-detect)")
	outputDir := flag.String("output", "", "Output directory (default: <input>/packed)")
	skeletonPath := flag.String("skeleton", "", "Skeleton file (default: <input>/skeleton.json)")
	endian := flag.String("endian", "", "Archive byte order: native, little or big")
	optimize := flag.Bool("optimize", false, "Reduce keys under the configured tolerances")
	additive := flag.Bool("additive", false, "Convert clips to additive deltas against their first key")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	testN := flag.Int("test", 0, "Pack only the first N clips")
	verbose := flag.Int("v", 0, "Log verbosity")

	flag.Parse()

	stdr.SetVerbosity(*verbose)
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags))

	// Load config
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

	// CLI flags override config file and environment
	cfg.Resolve(config.Flags{
		InputDir:   *inputDir,
		OutputDir:  *outputDir,
		Skeleton:   *skeletonPath,
		Endianness: *endian,
		Optimize:   *optimize,
		Additive:   *additive,
		Workers:    *workers,
	})

	if cfg.InputDir == "" {
		fmt.Fprintln(os.Stderr, "Error: cannot find an input directory. Use -input flag or config.json.")
		os.Exit(1)
	}

	byteOrder, err := cfg.ArchiveEndianness()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	clips, err := batch.FindClips(cfg.InputDir, cfg.Skeleton)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *testN > 0 && *testN < len(clips) {
		clips = clips[:*testN]
	}
	if len(clips) == 0 {
		fmt.Println("No clips to pack.")
		os.Exit(0)
	}

	cache := batch.NewSkeletonCache(skeleton.Builder{}, logger)
	defer cache.Close()
	skel, err := cache.Resolve(cfg.Skeleton)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading skeleton: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Skeleton: %s (%d joints)\n", cfg.Skeleton, skel.NumJoints())
	fmt.Printf("Clips: %d, Workers: %d, Byte order: %s\n", len(clips), cfg.Workers, byteOrder)
	if cfg.Optimize {
		fmt.Printf("Optimize: translation %g, rotation %g deg, scale %g, hierarchical %g\n",
			cfg.TranslationTolerance, cfg.RotationTolerance, cfg.ScaleTolerance, cfg.HierarchicalTolerance)
	}
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	// Run batch
	batchCfg := batch.Config{
		OutputDir: cfg.OutputDir,
		Skeleton:  cfg.Skeleton,
		Skeletons: cache,
		Endian:    byteOrder,
		Optimize:  cfg.Optimize,
		Optimizer: cfg.Optimizer(),
		Additive:  cfg.Additive,
		Workers:   cfg.Workers,
		Log:       logger,
	}

	results := batch.Run(batchCfg, clips)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	summary := batch.Summarize(results)
	summary.Log(logger, elapsed)

	fmt.Printf("Packed: %d/%d\n", summary.Succeeded, len(clips))

	var failed []batch.Result
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		limit := min(20, len(failed))
		for _, e := range failed[:limit] {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
	}

	// Write manifest
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if err := batch.WriteManifest(cfg.Manifest, batch.NewManifest(batchCfg, results)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", cfg.Manifest)
	}

	if len(failed) > 0 {
		os.Exit(1)
	}
}
