// Package formats provides readers for Ragnarok Online model files.
// RSM (Resource Model) holds the static geometry of a model LOD.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/rsm-inspector/pkg/encoding"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidNodeCount      = errors.New("invalid RSM node count")
)

const (
	rsmMagic      = "GRSM"
	rsmNameLen    = 40
	rsmMaxNodes   = 10000
	rsmMaxItems   = 100000
	rsmMaxKeys    = 10000
	rsmHeaderSize = 14
)

// RSMVersion represents the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// RSMShadingType represents the shading mode for rendering.
type RSMShadingType int32

const (
	RSMShadingNone   RSMShadingType = 0
	RSMShadingFlat   RSMShadingType = 1
	RSMShadingSmooth RSMShadingType = 2
)

// String returns a human-readable shading type name.
func (s RSMShadingType) String() string {
	switch s {
	case RSMShadingNone:
		return "None"
	case RSMShadingFlat:
		return "Flat"
	case RSMShadingSmooth:
		return "Smooth"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// RSMTexCoord is a texture coordinate with its vertex color (v1.2+).
type RSMTexCoord struct {
	Color [4]uint8
	U, V  float32
}

// RSMFace is a triangle referencing node-local vertices and texcoords.
type RSMFace struct {
	VertexIDs   [3]uint16
	TexCoordIDs [3]uint16
	TextureID   uint16 // index into RSMNode.TextureIDs
	TwoSide     int32
	SmoothGroup int32
}

// RSMNode is one node of the model hierarchy. Only geometry is kept;
// animation keyframes are counted and skipped.
type RSMNode struct {
	Name       string
	Parent     string
	TextureIDs []int32 // indices into RSM.Textures

	Offset   [3]float32
	Position [3]float32
	Scale    [3]float32

	Vertices  [][3]float32
	TexCoords []RSMTexCoord
	Faces     []RSMFace

	KeyframeCount int
}

// GlobalTexture resolves a face's node-local texture slot to an index
// into RSM.Textures. Out-of-range slots resolve to 0.
func (n *RSMNode) GlobalTexture(f RSMFace) int {
	if int(f.TextureID) < len(n.TextureIDs) {
		return int(n.TextureIDs[f.TextureID])
	}
	return 0
}

// RSM represents a parsed RSM file.
type RSM struct {
	Version    RSMVersion
	AnimLength int32
	Shading    RSMShadingType
	Alpha      float32
	Textures   []string
	RootNode   string
	Nodes      []RSMNode
}

// rsmReader reads little-endian values and keeps the first error.
type rsmReader struct {
	r   *bytes.Reader
	err error
}

func (rr *rsmReader) read(v any) {
	if rr.err != nil {
		return
	}
	if err := binary.Read(rr.r, binary.LittleEndian, v); err != nil {
		rr.err = ErrTruncatedRSMData
	}
}

func (rr *rsmReader) skip(n int64) {
	if rr.err != nil {
		return
	}
	if int64(rr.r.Len()) < n {
		rr.err = ErrTruncatedRSMData
		return
	}
	_, _ = rr.r.Seek(n, io.SeekCurrent)
}

func (rr *rsmReader) name() string {
	buf := make([]byte, rsmNameLen)
	rr.read(buf)
	return encoding.DecodeName(buf)
}

// count reads an int32 element count. Negative or absurd counts are
// treated as zero, matching how the client tolerates padded files.
func (rr *rsmReader) count(limit int32) int {
	var n int32
	rr.read(&n)
	if n <= 0 || n >= limit {
		return 0
	}
	return int(n)
}

// ParseRSM parses RSM data from a byte slice.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < rsmHeaderSize {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != rsmMagic {
		return nil, ErrInvalidRSMMagic
	}

	rr := &rsmReader{r: bytes.NewReader(data[4:])}
	rsm := &RSM{Alpha: 1.0}

	rr.read(&rsm.Version.Major)
	rr.read(&rsm.Version.Minor)
	if rsm.Version.Major < 1 || rsm.Version.Major > 2 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	rr.read(&rsm.AnimLength)
	rr.read(&rsm.Shading)
	if rsm.Version.AtLeast(1, 4) {
		var alpha uint8
		rr.read(&alpha)
		rsm.Alpha = float32(alpha) / 255.0
	}
	rr.skip(16) // reserved

	rsm.Textures = make([]string, rr.count(rsmMaxItems))
	for i := range rsm.Textures {
		rsm.Textures[i] = rr.name()
	}
	rsm.RootNode = rr.name()

	var nodeCount int32
	rr.read(&nodeCount)
	if rr.err != nil {
		return nil, rr.err
	}
	if nodeCount < 0 || nodeCount > rsmMaxNodes {
		return nil, ErrInvalidNodeCount
	}

	rsm.Nodes = make([]RSMNode, nodeCount)
	for i := range rsm.Nodes {
		readRSMNode(rr, rsm.Version, &rsm.Nodes[i])
		if rr.err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, rr.err)
		}
	}

	return rsm, nil
}

func readRSMNode(rr *rsmReader, version RSMVersion, node *RSMNode) {
	node.Name = rr.name()
	node.Parent = rr.name()

	node.TextureIDs = make([]int32, rr.count(1000))
	for i := range node.TextureIDs {
		rr.read(&node.TextureIDs[i])
	}

	rr.skip(9 * 4) // 3x3 rotation matrix
	rr.read(&node.Offset)
	rr.read(&node.Position)
	rr.skip(4 + 3*4) // rotation angle + axis
	rr.read(&node.Scale)

	node.Vertices = make([][3]float32, rr.count(rsmMaxItems))
	for i := range node.Vertices {
		rr.read(&node.Vertices[i])
	}

	node.TexCoords = make([]RSMTexCoord, rr.count(rsmMaxItems))
	for i := range node.TexCoords {
		tc := &node.TexCoords[i]
		if version.AtLeast(1, 2) {
			rr.read(&tc.Color)
		} else {
			tc.Color = [4]uint8{255, 255, 255, 255}
		}
		rr.read(&tc.U)
		rr.read(&tc.V)
	}

	node.Faces = make([]RSMFace, rr.count(rsmMaxItems))
	for i := range node.Faces {
		f := &node.Faces[i]
		rr.read(&f.VertexIDs)
		rr.read(&f.TexCoordIDs)
		rr.read(&f.TextureID)
		rr.skip(2) // padding
		rr.read(&f.TwoSide)
		if version.AtLeast(1, 2) {
			rr.read(&f.SmoothGroup)
		}
	}

	// Position keys (v < 1.5): frame + vec3.
	if !version.AtLeast(1, 5) {
		n := rr.count(rsmMaxKeys)
		rr.skip(int64(n) * 16)
		node.KeyframeCount += n
	}
	// Rotation keys: frame + quaternion.
	n := rr.count(rsmMaxKeys)
	rr.skip(int64(n) * 20)
	node.KeyframeCount += n
	// Scale keys (v >= 1.5): frame + vec3.
	if version.AtLeast(1, 5) {
		n := rr.count(rsmMaxKeys)
		rr.skip(int64(n) * 16)
		node.KeyframeCount += n
	}
}

// ParseRSMFile parses an RSM file from disk.
func ParseRSMFile(path string) (*RSM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RSM file: %w", err)
	}
	return ParseRSM(data)
}

// TotalVertexCount returns the number of vertices across all nodes.
func (rsm *RSM) TotalVertexCount() int {
	total := 0
	for i := range rsm.Nodes {
		total += len(rsm.Nodes[i].Vertices)
	}
	return total
}

// TotalFaceCount returns the number of faces across all nodes.
func (rsm *RSM) TotalFaceCount() int {
	total := 0
	for i := range rsm.Nodes {
		total += len(rsm.Nodes[i].Faces)
	}
	return total
}

// HasAnimation returns true if any node carries keyframes.
func (rsm *RSM) HasAnimation() bool {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].KeyframeCount > 0 {
			return true
		}
	}
	return false
}
