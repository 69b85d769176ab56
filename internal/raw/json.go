package raw

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"skelpack/internal/mathutil"
)

// jsonTransform omits rotation and scale when they are identity.
type jsonTransform struct {
	Translation [3]float32  `json:"translation"`
	Rotation    *[4]float32 `json:"rotation,omitempty"` // x, y, z, w
	Scale       *[3]float32 `json:"scale,omitempty"`
}

type jsonJoint struct {
	Name      string        `json:"name"`
	Transform jsonTransform `json:"transform"`
	Children  []jsonJoint   `json:"children,omitempty"`
}

type jsonSkeleton struct {
	Roots []jsonJoint `json:"roots"`
}

type jsonVecKey struct {
	Time  float32    `json:"time"`
	Value [3]float32 `json:"value"`
}

type jsonQuatKey struct {
	Time  float32    `json:"time"`
	Value [4]float32 `json:"value"`
}

type jsonTrack struct {
	Translations []jsonVecKey  `json:"translations,omitempty"`
	Rotations    []jsonQuatKey `json:"rotations,omitempty"`
	Scales       []jsonVecKey  `json:"scales,omitempty"`
}

type jsonAnimation struct {
	Name     string      `json:"name"`
	Duration float32     `json:"duration"`
	Tracks   []jsonTrack `json:"tracks"`
}

func (j jsonTransform) transform() mathutil.Transform {
	t := mathutil.IdentityTransform()
	t.Translation = j.Translation
	if j.Rotation != nil {
		t.Rotation = mathutil.QuatFromArray(*j.Rotation)
	}
	if j.Scale != nil {
		t.Scale = *j.Scale
	}
	return t
}

func toJSONTransform(t mathutil.Transform) jsonTransform {
	out := jsonTransform{Translation: t.Translation}
	if t.Rotation != mgl32.QuatIdent() {
		r := mathutil.QuatToArray(t.Rotation)
		out.Rotation = &r
	}
	if t.Scale != (mgl32.Vec3{1, 1, 1}) {
		s := [3]float32(t.Scale)
		out.Scale = &s
	}
	return out
}

func (j jsonJoint) joint() Joint {
	out := Joint{Name: j.Name, Transform: j.Transform.transform()}
	if len(j.Children) > 0 {
		out.Children = make([]Joint, len(j.Children))
		for i := range j.Children {
			out.Children[i] = j.Children[i].joint()
		}
	}
	return out
}

func toJSONJoint(j *Joint) jsonJoint {
	out := jsonJoint{Name: j.Name, Transform: toJSONTransform(j.Transform)}
	for i := range j.Children {
		out.Children = append(out.Children, toJSONJoint(&j.Children[i]))
	}
	return out
}

// ParseSkeletonJSON decodes a skeleton hierarchy. Missing rotations and
// scales default to identity.
func ParseSkeletonJSON(data []byte) (*Skeleton, error) {
	var doc jsonSkeleton
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	s := &Skeleton{}
	if len(doc.Roots) > 0 {
		s.Roots = make([]Joint, len(doc.Roots))
		for i := range doc.Roots {
			s.Roots[i] = doc.Roots[i].joint()
		}
	}
	return s, nil
}

// ReadSkeletonJSON loads a skeleton from a JSON file.
func ReadSkeletonJSON(path string) (*Skeleton, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("raw: read %s: %w", path, err)
	}
	s, err := ParseSkeletonJSON(data)
	if err != nil {
		return nil, fmt.Errorf("raw: parse %s: %w", path, err)
	}
	return s, nil
}

// MarshalSkeletonJSON encodes s in the form ParseSkeletonJSON reads.
func MarshalSkeletonJSON(s *Skeleton) ([]byte, error) {
	doc := jsonSkeleton{Roots: []jsonJoint{}}
	for i := range s.Roots {
		doc.Roots = append(doc.Roots, toJSONJoint(&s.Roots[i]))
	}
	return json.MarshalIndent(doc, "", "  ")
}

// WriteSkeletonJSON writes s to path as indented JSON.
func WriteSkeletonJSON(path string, s *Skeleton) error {
	data, err := MarshalSkeletonJSON(s)
	if err != nil {
		return fmt.Errorf("raw: encode skeleton: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("raw: write %s: %w", path, err)
	}
	return nil
}

// ParseAnimationJSON decodes an authoring clip. Rotation values are x, y, z, w.
func ParseAnimationJSON(data []byte) (*Animation, error) {
	var doc jsonAnimation
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	a := &Animation{Name: doc.Name, Duration: doc.Duration}
	if len(doc.Tracks) > 0 {
		a.Tracks = make([]JointTrack, len(doc.Tracks))
	}
	for i, jt := range doc.Tracks {
		t := &a.Tracks[i]
		for _, k := range jt.Translations {
			t.Translations = append(t.Translations, TranslationKey{Time: k.Time, Value: k.Value})
		}
		for _, k := range jt.Rotations {
			t.Rotations = append(t.Rotations, RotationKey{Time: k.Time, Value: mathutil.QuatFromArray(k.Value)})
		}
		for _, k := range jt.Scales {
			t.Scales = append(t.Scales, ScaleKey{Time: k.Time, Value: k.Value})
		}
	}
	return a, nil
}

// ReadAnimationJSON loads an authoring clip from a JSON file.
func ReadAnimationJSON(path string) (*Animation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("raw: read %s: %w", path, err)
	}
	a, err := ParseAnimationJSON(data)
	if err != nil {
		return nil, fmt.Errorf("raw: parse %s: %w", path, err)
	}
	return a, nil
}

// MarshalAnimationJSON encodes a in the form ParseAnimationJSON reads.
func MarshalAnimationJSON(a *Animation) ([]byte, error) {
	doc := jsonAnimation{Name: a.Name, Duration: a.Duration, Tracks: make([]jsonTrack, len(a.Tracks))}
	for i := range a.Tracks {
		t := &a.Tracks[i]
		jt := &doc.Tracks[i]
		for _, k := range t.Translations {
			jt.Translations = append(jt.Translations, jsonVecKey{Time: k.Time, Value: k.Value})
		}
		for _, k := range t.Rotations {
			jt.Rotations = append(jt.Rotations, jsonQuatKey{Time: k.Time, Value: mathutil.QuatToArray(k.Value)})
		}
		for _, k := range t.Scales {
			jt.Scales = append(jt.Scales, jsonVecKey{Time: k.Time, Value: k.Value})
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// WriteAnimationJSON writes a to path as indented JSON.
func WriteAnimationJSON(path string, a *Animation) error {
	data, err := MarshalAnimationJSON(a)
	if err != nil {
		return fmt.Errorf("raw: encode animation: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("raw: write %s: %w", path, err)
	}
	return nil
}
