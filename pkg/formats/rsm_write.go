package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Faultbox/rsm-inspector/pkg/encoding"
)

// EncodeRSM serializes the geometry subset of an RSM. Matrices are written as
// identity and no keyframes are emitted, so ParseRSM(EncodeRSM(m)) returns
// the same textures, nodes, vertices, texcoords and faces.
func EncodeRSM(rsm *RSM) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteRSM(&buf, rsm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteRSM writes the geometry subset of an RSM to w.
func WriteRSM(w io.Writer, rsm *RSM) error {
	if rsm.Version.Major < 1 || rsm.Version.Major > 2 {
		return fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	ew := &rsmWriter{w: w}
	ew.bytes([]byte(rsmMagic))
	ew.put(rsm.Version.Major)
	ew.put(rsm.Version.Minor)
	ew.put(rsm.AnimLength)
	ew.put(rsm.Shading)
	if rsm.Version.AtLeast(1, 4) {
		ew.put(uint8(rsm.Alpha * 255))
	}
	ew.bytes(make([]byte, 16))

	ew.put(int32(len(rsm.Textures)))
	for _, t := range rsm.Textures {
		ew.name(t)
	}
	ew.name(rsm.RootNode)

	ew.put(int32(len(rsm.Nodes)))
	for i := range rsm.Nodes {
		writeRSMNode(ew, rsm.Version, &rsm.Nodes[i])
	}
	return ew.err
}

func writeRSMNode(ew *rsmWriter, version RSMVersion, node *RSMNode) {
	ew.name(node.Name)
	ew.name(node.Parent)

	ew.put(int32(len(node.TextureIDs)))
	for _, id := range node.TextureIDs {
		ew.put(id)
	}

	ew.put([9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1})
	ew.put(node.Offset)
	ew.put(node.Position)
	ew.put(float32(0))
	ew.put([3]float32{})
	ew.put(node.Scale)

	ew.put(int32(len(node.Vertices)))
	for _, v := range node.Vertices {
		ew.put(v)
	}

	ew.put(int32(len(node.TexCoords)))
	for _, tc := range node.TexCoords {
		if version.AtLeast(1, 2) {
			ew.put(tc.Color)
		}
		ew.put(tc.U)
		ew.put(tc.V)
	}

	ew.put(int32(len(node.Faces)))
	for _, f := range node.Faces {
		ew.put(f.VertexIDs)
		ew.put(f.TexCoordIDs)
		ew.put(f.TextureID)
		ew.put(uint16(0))
		ew.put(f.TwoSide)
		if version.AtLeast(1, 2) {
			ew.put(f.SmoothGroup)
		}
	}

	if !version.AtLeast(1, 5) {
		ew.put(int32(0)) // position keys
	}
	ew.put(int32(0)) // rotation keys
	if version.AtLeast(1, 5) {
		ew.put(int32(0)) // scale keys
	}
}

type rsmWriter struct {
	w   io.Writer
	err error
}

func (ew *rsmWriter) put(v any) {
	if ew.err != nil {
		return
	}
	ew.err = binary.Write(ew.w, binary.LittleEndian, v)
}

func (ew *rsmWriter) bytes(b []byte) {
	if ew.err != nil {
		return
	}
	_, ew.err = ew.w.Write(b)
}

func (ew *rsmWriter) name(s string) {
	ew.bytes(encoding.EncodeName(s, rsmNameLen))
}
