// Package asset holds the model asset the inspector observes: LODs,
// submeshes, material slots and the streamed CPU-side geometry.
package asset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
	"gopkg.in/yaml.v3"
)

// Asset errors.
var (
	ErrNotLoaded  = errors.New("model geometry not fully loaded")
	ErrUnloaded   = errors.New("model was unloaded")
	ErrLODRange   = errors.New("LOD index out of range")
	ErrNoSubmesh  = errors.New("submesh does not exist")
	ErrNoLODFiles = errors.New("manifest lists no LOD files")
)

// MaterialRef is an opaque material handle (a material asset path).
// The empty ref means no material.
type MaterialRef string

// ShadowMode controls which shadow passes a material slot takes part in.
type ShadowMode int

const (
	ShadowAll ShadowMode = iota
	ShadowOff
	ShadowStaticOnly
	ShadowDynamicOnly
)

// DefaultShadowMode is assigned to newly created slots.
const DefaultShadowMode = ShadowAll

var shadowModeNames = map[ShadowMode]string{
	ShadowAll:         "all",
	ShadowOff:         "off",
	ShadowStaticOnly:  "static",
	ShadowDynamicOnly: "dynamic",
}

// String returns the manifest name of the mode.
func (s ShadowMode) String() string {
	if name, ok := shadowModeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ShadowMode(%d)", int(s))
}

// ParseShadowMode parses a manifest shadow mode name.
func ParseShadowMode(name string) (ShadowMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultShadowMode, nil
	}
	for mode, n := range shadowModeNames {
		if n == name {
			return mode, nil
		}
	}
	return DefaultShadowMode, fmt.Errorf("unknown shadow mode %q", name)
}

// MarshalYAML writes the mode by name.
func (s ShadowMode) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML reads the mode by name.
func (s *ShadowMode) UnmarshalYAML(value *yaml.Node) error {
	mode, err := ParseShadowMode(value.Value)
	if err != nil {
		return err
	}
	*s = mode
	return nil
}

// MaterialSlot is a named indirection between submeshes and a material.
type MaterialSlot struct {
	Index      int
	Name       string
	Material   MaterialRef
	ShadowMode ShadowMode
}

// DefaultSlot returns the slot created for a new index.
func DefaultSlot(index int) MaterialSlot {
	return MaterialSlot{
		Index:      index,
		Name:       fmt.Sprintf("Material %d", index),
		ShadowMode: DefaultShadowMode,
	}
}

// Submesh is one drawable part of a LOD bound to a material slot.
type Submesh struct {
	LOD               int
	Index             int
	MaterialSlotIndex int
	TriangleCount     int
	VertexCount       int
}

// LOD is one geometry resolution tier.
type LOD struct {
	Index      int
	ScreenSize float32
	Submeshes  []*Submesh
}

// Vertex is the CPU-readable vertex layout used by the UV preview.
type Vertex struct {
	Position   mgl32.Vec3
	TexCoord   mgl32.Vec2
	LightmapUV mgl32.Vec2
}

// Geometry is the streamed vertex/index data of one submesh.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
}

// TriangleCount returns the number of whole triangles in the index list.
func (g Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// LODData describes one LOD as it streams in.
type LODData struct {
	ScreenSize float32
	Submeshes  []Geometry
	Slots      []int // slot per submesh; missing entries bind to slot 0
}

// Clamp returns v limited to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NormalizeSlot maps a requested slot index into [0, slotCount).
// -1 (no selection) becomes 0.
func NormalizeSlot(index, slotCount int) int {
	if slotCount <= 0 {
		return 0
	}
	return Clamp(index, 0, slotCount-1)
}
