package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"

	"skelpack/internal/codec"
	"skelpack/internal/mathutil"
	"skelpack/internal/offline"
)

// Config holds all configurable paths and pipeline settings.
type Config struct {
	// Paths
	InputDir  string `json:"input_dir" env:"SKELPACK_INPUT_DIR"`
	OutputDir string `json:"output_dir" env:"SKELPACK_OUTPUT_DIR"`
	Skeleton  string `json:"skeleton" env:"SKELPACK_SKELETON"`
	Manifest  string `json:"manifest" env:"SKELPACK_MANIFEST"`

	// Archive settings
	Endianness string `json:"endianness" env:"SKELPACK_ENDIANNESS"` // native, little or big

	// Pipeline settings
	Optimize              bool    `json:"optimize" env:"SKELPACK_OPTIMIZE"`
	Additive              bool    `json:"additive" env:"SKELPACK_ADDITIVE"`
	TranslationTolerance  float32 `json:"translation_tolerance" env:"SKELPACK_TRANSLATION_TOLERANCE"`
	RotationTolerance     float32 `json:"rotation_tolerance_deg" env:"SKELPACK_ROTATION_TOLERANCE_DEG"`
	ScaleTolerance        float32 `json:"scale_tolerance" env:"SKELPACK_SCALE_TOLERANCE"`
	HierarchicalTolerance float32 `json:"hierarchical_tolerance" env:"SKELPACK_HIERARCHICAL_TOLERANCE"`
	Workers               int     `json:"workers" env:"SKELPACK_WORKERS"`

	// Preview settings
	PreviewSize   int    `json:"preview_size" env:"SKELPACK_PREVIEW_SIZE"`
	Supersample   int    `json:"supersample" env:"SKELPACK_SUPERSAMPLE"`
	PreviewFormat string `json:"preview_format" env:"SKELPACK_PREVIEW_FORMAT"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields whose SKELPACK_* variable is set.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Flags holds CLI flag values that override config file and environment
// settings. Zero values mean "not set".
type Flags struct {
	InputDir   string
	OutputDir  string
	Skeleton   string
	Endianness string
	Optimize   bool
	Additive   bool
	Workers    int
}

// Resolve applies flags, then fills any empty fields with defaults.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file and environment
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Skeleton != "" {
		c.Skeleton = flags.Skeleton
	}
	if flags.Endianness != "" {
		c.Endianness = flags.Endianness
	}
	if flags.Optimize {
		c.Optimize = true
	}
	if flags.Additive {
		c.Additive = true
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	// Auto-detect input dir if still empty
	if c.InputDir == "" {
		c.InputDir = detectInputDir()
	}

	// Resolve relative paths against the input dir
	if c.InputDir != "" {
		if c.Skeleton == "" {
			c.Skeleton = filepath.Join(c.InputDir, "skeleton.json")
		} else if !filepath.IsAbs(c.Skeleton) {
			c.Skeleton = filepath.Join(c.InputDir, c.Skeleton)
		}

		if c.OutputDir == "" {
			c.OutputDir = filepath.Join(c.InputDir, "packed")
		} else if !filepath.IsAbs(c.OutputDir) {
			c.OutputDir = filepath.Join(c.InputDir, c.OutputDir)
		}
	}
	if c.Manifest == "" && c.OutputDir != "" {
		c.Manifest = filepath.Join(c.OutputDir, "manifest.json")
	}

	// Defaults for pipeline settings
	if c.Endianness == "" {
		c.Endianness = "native"
	}
	defaults := offline.NewOptimizer()
	if c.TranslationTolerance <= 0 {
		c.TranslationTolerance = defaults.TranslationTolerance
	}
	if c.RotationTolerance <= 0 {
		c.RotationTolerance = 0.1
	}
	if c.ScaleTolerance <= 0 {
		c.ScaleTolerance = defaults.ScaleTolerance
	}
	if c.HierarchicalTolerance <= 0 {
		c.HierarchicalTolerance = defaults.HierarchicalTolerance
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}

	// Defaults for preview settings
	if c.PreviewSize <= 0 {
		c.PreviewSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.PreviewFormat == "" {
		c.PreviewFormat = "webp"
	}
}

// ArchiveEndianness maps the Endianness setting to the byte order archives
// are written in.
func (c *Config) ArchiveEndianness() (codec.Endianness, error) {
	switch strings.ToLower(c.Endianness) {
	case "", "native":
		return codec.NativeEndianness(), nil
	case "little":
		return codec.LittleEndian, nil
	case "big":
		return codec.BigEndian, nil
	}
	return 0, fmt.Errorf("config: unknown endianness %q", c.Endianness)
}

// Optimizer returns the key-frame optimizer configured by the tolerances.
// RotationTolerance is in degrees.
func (c *Config) Optimizer() offline.Optimizer {
	return offline.Optimizer{
		TranslationTolerance:  c.TranslationTolerance,
		RotationTolerance:     mathutil.Deg2Rad(c.RotationTolerance),
		ScaleTolerance:        c.ScaleTolerance,
		HierarchicalTolerance: c.HierarchicalTolerance,
	}
}

func detectInputDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir)} {
			if _, err := os.Stat(filepath.Join(base, "clips", "skeleton.json")); err == nil {
				return filepath.Join(base, "clips")
			}
		}
	}

	// Try current working directory
	cwd, _ := os.Getwd()
	if _, err := os.Stat(filepath.Join(cwd, "clips", "skeleton.json")); err == nil {
		return filepath.Join(cwd, "clips")
	}
	if _, err := os.Stat(filepath.Join(cwd, "skeleton.json")); err == nil {
		return cwd
	}

	return ""
}
