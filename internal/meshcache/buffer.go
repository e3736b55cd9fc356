// Package meshcache acquires CPU-readable mesh data for the UV preview in
// the background and caches it per LOD and submesh until invalidated.
package meshcache

import "github.com/Faultbox/rsm-inspector/internal/asset"

// MeshBuffer is the decoded vertex/index data of one submesh. It is owned by
// the Cache and must be treated as read-only.
type MeshBuffer struct {
	Vertices []asset.Vertex
	Indices  []uint32
}

func newMeshBuffer(g asset.Geometry) MeshBuffer {
	b := MeshBuffer{
		Vertices: make([]asset.Vertex, len(g.Vertices)),
		Indices:  make([]uint32, len(g.Indices)),
	}
	copy(b.Vertices, g.Vertices)
	copy(b.Indices, g.Indices)
	return b
}

// TriangleCount returns the number of whole triangles.
func (b MeshBuffer) TriangleCount() int {
	return len(b.Indices) / 3
}

// Triangle returns the three vertices of triangle i. ok is false when any
// index points outside the vertex list.
func (b MeshBuffer) Triangle(i int) (v [3]asset.Vertex, ok bool) {
	base := i * 3
	if i < 0 || base+2 >= len(b.Indices) {
		return v, false
	}
	for j := 0; j < 3; j++ {
		idx := b.Indices[base+j]
		if int(idx) >= len(b.Vertices) {
			return v, false
		}
		v[j] = b.Vertices[idx]
	}
	return v, true
}
