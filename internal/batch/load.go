package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"skelpack/internal/animation"
	"skelpack/internal/archive"
	"skelpack/internal/raw"
	"skelpack/internal/skeleton"
)

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func openArchive(path string, log logr.Logger) (archive.FileStream, *archive.IArchive, error) {
	f, err := archive.OpenFile(path)
	if err != nil {
		return archive.FileStream{}, nil, err
	}
	return f, archive.NewIArchive(f, archive.WithLogger(log.WithValues("file", path))), nil
}

// LoadRawSkeleton reads an authoring skeleton from JSON or a raw skeleton
// archive.
func LoadRawSkeleton(path string, log logr.Logger) (*raw.Skeleton, error) {
	if isJSON(path) {
		return raw.ReadSkeletonJSON(path)
	}
	f, ia, err := openArchive(path, log)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var s raw.Skeleton
	if err := archive.Load(ia, &s); err != nil {
		return nil, fmt.Errorf("batch: load %s: %w", path, err)
	}
	return &s, nil
}

// LoadSkeleton returns a runtime skeleton from a JSON file, a raw skeleton
// archive (built on load) or a runtime skeleton archive.
func LoadSkeleton(path string, b skeleton.Builder, log logr.Logger) (*skeleton.Skeleton, error) {
	if !isJSON(path) {
		f, ia, err := openArchive(path, log)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if ia.TestTag(skeleton.Tag) {
			s := skeleton.New(b.Allocator)
			if err := archive.Load(ia, s); err != nil {
				return nil, fmt.Errorf("batch: load %s: %w", path, err)
			}
			return s, nil
		}
	}
	r, err := LoadRawSkeleton(path, log)
	if err != nil {
		return nil, err
	}
	return b.Build(r)
}

// LoadRawAnimation reads an authoring clip from JSON or a raw animation
// archive.
func LoadRawAnimation(path string, log logr.Logger) (*raw.Animation, error) {
	if isJSON(path) {
		return raw.ReadAnimationJSON(path)
	}
	f, ia, err := openArchive(path, log)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var a raw.Animation
	if err := archive.Load(ia, &a); err != nil {
		return nil, fmt.Errorf("batch: load %s: %w", path, err)
	}
	return &a, nil
}

// LoadAnimation returns a runtime clip from a JSON file, a raw animation
// archive (built on load) or a runtime animation archive.
func LoadAnimation(path string, b animation.Builder, log logr.Logger) (*animation.Animation, error) {
	if !isJSON(path) {
		f, ia, err := openArchive(path, log)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if ia.TestTag(animation.Tag) {
			a := animation.New(b.Allocator)
			if err := archive.Load(ia, a); err != nil {
				return nil, fmt.Errorf("batch: load %s: %w", path, err)
			}
			return a, nil
		}
	}
	r, err := LoadRawAnimation(path, log)
	if err != nil {
		return nil, err
	}
	return b.Build(r)
}
