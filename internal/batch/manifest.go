package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// ManifestEntry represents one packed clip in the output manifest.
type ManifestEntry struct {
	Name       string `json:"name"`
	Source     string `json:"source"`
	Archive    string `json:"archive"`
	Tracks     int    `json:"tracks"`
	InputKeys  int    `json:"input_keys"`
	OutputKeys int    `json:"output_keys"`
	Bytes      int    `json:"bytes"`
	Size       string `json:"size"`
	Digest     string `json:"xxhash64"`
}

// Manifest is the document written next to the packed clips.
type Manifest struct {
	Skeleton   string          `json:"skeleton"`
	Endianness string          `json:"endianness"`
	Clips      []ManifestEntry `json:"clips"`
}

// NewManifest collects the successful results. Paths are made relative to
// the output directory.
func NewManifest(cfg Config, results []Result) Manifest {
	m := Manifest{
		Skeleton:   cfg.Skeleton,
		Endianness: cfg.Endian.String(),
		Clips:      []ManifestEntry{},
	}
	for _, r := range results {
		if !r.Success {
			continue
		}
		rel, err := filepath.Rel(cfg.OutputDir, r.Output)
		if err != nil {
			rel = r.Output
		}
		m.Clips = append(m.Clips, ManifestEntry{
			Name:       r.Name,
			Source:     r.Input,
			Archive:    filepath.ToSlash(rel),
			Tracks:     r.Tracks,
			InputKeys:  r.InputKeys,
			OutputKeys: r.OutputKeys,
			Bytes:      r.Bytes,
			Size:       humanize.Bytes(uint64(r.Bytes)),
			Digest:     fmt.Sprintf("%016x", r.Digest),
		})
	}
	return m
}

// WriteManifest writes m as indented JSON.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
