package asset

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/rsm-inspector/pkg/formats"
)

// Loader opens model manifests and streams their RSM LOD files into a
// Model on a background goroutine.
type Loader struct {
	log *zap.Logger
}

// NewLoader creates a loader. A nil logger disables logging.
func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{log: log}
}

// Open reads a manifest and starts streaming its LODs into a new model.
// The model reports Loaded once every LOD file has been read.
func (l *Loader) Open(manifestPath string) (*Model, *Manifest, error) {
	mf, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, nil, err
	}
	m := NewModel(mf.Name, nil, 0)
	l.begin(m, mf)
	return m, mf, nil
}

// Reload re-reads the manifest into an existing model under a new revision.
func (l *Loader) Reload(m *Model, manifestPath string) (*Manifest, error) {
	mf, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	l.begin(m, mf)
	return mf, nil
}

// begin resets m for mf and starts the stream. Without manifest slots, the
// slots come from the first LOD's texture list once it has been read.
func (l *Loader) begin(m *Model, mf *Manifest) {
	slots := mf.MaterialSlots()
	rev := m.Reset(slots, len(mf.LODs))
	go l.stream(m, mf, rev, len(slots) == 0)
}

func (l *Loader) stream(m *Model, mf *Manifest, rev uuid.UUID, slotsFromTextures bool) {
	log := l.log.With(zap.String("model", mf.Name), zap.Stringer("revision", rev))

	for lod := range mf.LODs {
		path := mf.LODPath(lod)
		rsm, err := formats.ParseRSMFile(path)
		if err != nil {
			log.Warn("LOD stream failed", zap.Int("lod", lod), zap.String("file", path), zap.Error(err))
			m.FailLoad(rev, fmt.Errorf("LOD %d: %w", lod, err))
			return
		}

		if lod == 0 && slotsFromTextures && !m.SetStreamedSlots(rev, SlotsFromTextures(rsm.Textures)) {
			log.Debug("dropped stale slot list")
			return
		}

		groups := BuildGeometry(rsm)
		data := LODData{
			ScreenSize: mf.LODs[lod].ScreenSize,
			Submeshes:  make([]Geometry, len(groups)),
			Slots:      make([]int, len(groups)),
		}
		for i, g := range groups {
			data.Submeshes[i] = g.Geometry
			data.Slots[i] = g.Texture
			if slot, ok := mf.Assignment(lod, i); ok {
				data.Slots[i] = slot
			}
		}

		if !m.StreamLOD(rev, lod, data) {
			log.Debug("dropped stale LOD stream", zap.Int("lod", lod))
			return
		}
		log.Debug("LOD streamed",
			zap.Int("lod", lod),
			zap.Int("submeshes", len(groups)),
			zap.Int("faces", rsm.TotalFaceCount()))
	}
	log.Info("model loaded", zap.Int("lods", len(mf.LODs)))
}

// SlotsFromTextures creates one slot per RSM texture, named after it.
func SlotsFromTextures(textures []string) []MaterialSlot {
	slots := make([]MaterialSlot, len(textures))
	for i, tex := range textures {
		slots[i] = DefaultSlot(i)
		if tex != "" {
			slots[i].Name = tex
			slots[i].Material = MaterialRef(tex)
		}
	}
	return slots
}

// TextureGeometry is the geometry of all faces sharing one texture.
type TextureGeometry struct {
	Texture int
	Geometry
}

// BuildGeometry groups an RSM's faces by global texture index, one group per
// texture in use, ordered by texture index. Each face contributes three
// vertices; faces referencing missing vertices are skipped and missing
// texcoords read as (0,0). RSM has no lightmap channel.
func BuildGeometry(rsm *formats.RSM) []TextureGeometry {
	byTexture := make(map[int]*TextureGeometry)

	for n := range rsm.Nodes {
		node := &rsm.Nodes[n]
		for _, face := range node.Faces {
			if !faceInRange(node, face) {
				continue
			}

			tex := node.GlobalTexture(face)
			g, ok := byTexture[tex]
			if !ok {
				g = &TextureGeometry{Texture: tex}
				byTexture[tex] = g
			}

			base := uint32(len(g.Vertices))
			for j := 0; j < 3; j++ {
				v := node.Vertices[face.VertexIDs[j]]
				var uv mgl32.Vec2
				if int(face.TexCoordIDs[j]) < len(node.TexCoords) {
					tc := node.TexCoords[face.TexCoordIDs[j]]
					uv = mgl32.Vec2{tc.U, tc.V}
				}
				g.Vertices = append(g.Vertices, Vertex{
					// Flip Y for the RO coordinate system.
					Position: mgl32.Vec3{v[0], -v[1], v[2]},
					TexCoord: uv,
				})
			}
			g.Indices = append(g.Indices, base, base+1, base+2)
		}
	}

	textures := make([]int, 0, len(byTexture))
	for tex := range byTexture {
		textures = append(textures, tex)
	}
	sort.Ints(textures)

	groups := make([]TextureGeometry, len(textures))
	for i, tex := range textures {
		groups[i] = *byTexture[tex]
	}
	return groups
}

func faceInRange(node *formats.RSMNode, face formats.RSMFace) bool {
	for _, vid := range face.VertexIDs {
		if int(vid) >= len(node.Vertices) {
			return false
		}
	}
	return true
}
