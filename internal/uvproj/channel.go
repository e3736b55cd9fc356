// Package uvproj draws the UV layout of a model as a wireframe, reading
// geometry from the mesh cache and culling triangles too small to see.
package uvproj

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rsm-inspector/internal/asset"
)

// Channel selects which UV set is previewed.
type Channel int

const (
	ChannelNone Channel = iota
	ChannelTexCoord
	ChannelLightmapUVs
)

// Minimum triangle area in pixels for each channel. Triangles at or below
// it are culled.
const (
	TexCoordThreshold   = 10
	LightmapUVThreshold = 3
)

// String returns the config name of the channel.
func (c Channel) String() string {
	switch c {
	case ChannelNone:
		return "none"
	case ChannelTexCoord:
		return "texcoord"
	case ChannelLightmapUVs:
		return "lightmap"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// ParseChannel parses a channel name as used in config and on the command line.
func ParseChannel(name string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "off":
		return ChannelNone, nil
	case "texcoord", "uv", "uv0":
		return ChannelTexCoord, nil
	case "lightmap", "lightmapuvs", "uv1":
		return ChannelLightmapUVs, nil
	}
	return ChannelNone, fmt.Errorf("unknown UV channel %q", name)
}

// Threshold returns the culling area for a channel.
func Threshold(c Channel) float32 {
	if c == ChannelLightmapUVs {
		return LightmapUVThreshold
	}
	return TexCoordThreshold
}

// TriangleArea returns the area of the triangle abc.
func TriangleArea(a, b, c mgl32.Vec2) float32 {
	ab, ac := b.Sub(a), c.Sub(a)
	cross := ab.X()*ac.Y() - ab.Y()*ac.X()
	if cross < 0 {
		cross = -cross
	}
	return cross / 2
}

// uv returns the coordinate of v for the channel.
func (c Channel) uv(v asset.Vertex) mgl32.Vec2 {
	if c == ChannelLightmapUVs {
		return v.LightmapUV
	}
	return v.TexCoord
}
