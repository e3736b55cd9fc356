package uvproj

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rsm-inspector/internal/asset"
	"github.com/Faultbox/rsm-inspector/internal/engine/ui2d"
	"github.com/Faultbox/rsm-inspector/internal/meshcache"
)

// previewSize makes the pixel areas below come out exact.
const previewSize = 8

// triangles builds geometry with one triangle per three UVs. The same
// coordinates are used for both channels.
func triangles(uvs ...mgl32.Vec2) asset.Geometry {
	var g asset.Geometry
	for i, uv := range uvs {
		g.Vertices = append(g.Vertices, asset.Vertex{TexCoord: uv, LightmapUV: uv})
		g.Indices = append(g.Indices, uint32(i))
	}
	return g
}

var (
	// 5x4 pixel right triangle: area exactly 10.
	atThreshold = []mgl32.Vec2{{0, 0}, {0.625, 0}, {0, 0.5}}
	// 6x8: area 24.
	large = []mgl32.Vec2{{0, 0}, {0.75, 0}, {0, 1}}
	// 3x2: area exactly 3.
	small = []mgl32.Vec2{{0, 0}, {0.375, 0}, {0, 0.25}}
	// Collinear.
	degenerate = []mgl32.Vec2{{0, 0}, {0.5, 0.5}, {1, 1}}
	// Corrupt texcoords.
	nanUV  = []mgl32.Vec2{{0, 0}, {float32(math.NaN()), 0}, {0, 1}}
	infUV  = []mgl32.Vec2{{0, 0}, {float32(math.Inf(1)), 0}, {0, 1}}
	hugeUV = []mgl32.Vec2{{0, 0}, {1e9, 0}, {0, 1}}
)

func concat(sets ...[]mgl32.Vec2) []mgl32.Vec2 {
	var out []mgl32.Vec2
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

func newProjector(t *testing.T, m *asset.Model) (*Projector, *meshcache.Cache) {
	t.Helper()
	cache := meshcache.New()
	t.Cleanup(cache.Dispose)
	return New(cache, m), cache
}

// drawReady draws once to start the acquisition, waits, and draws again.
func drawReady(t *testing.T, p *Projector, cache *meshcache.Cache, params Params) (Result, *ui2d.Recorder) {
	t.Helper()
	p.Draw(ui2d.NewRecorder(previewSize, previewSize), params)
	cache.WaitForPending()
	rec := ui2d.NewRecorder(previewSize, previewSize)
	res := p.Draw(rec, params)
	if res.Status != StatusDrawn {
		t.Fatalf("status = %v, want drawn", res.Status)
	}
	return res, rec
}

func TestTriangleArea(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c mgl32.Vec2
		want    float32
	}{
		{"right", mgl32.Vec2{0, 0}, mgl32.Vec2{4, 0}, mgl32.Vec2{0, 3}, 6},
		{"clockwise", mgl32.Vec2{0, 0}, mgl32.Vec2{0, 3}, mgl32.Vec2{4, 0}, 6},
		{"collinear", mgl32.Vec2{0, 0}, mgl32.Vec2{1, 1}, mgl32.Vec2{2, 2}, 0},
		{"point", mgl32.Vec2{1, 1}, mgl32.Vec2{1, 1}, mgl32.Vec2{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TriangleArea(tt.a, tt.b, tt.c); got != tt.want {
				t.Errorf("area = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in      string
		want    Channel
		wantErr bool
	}{
		{"", ChannelNone, false},
		{"TexCoord", ChannelTexCoord, false},
		{"uv1", ChannelLightmapUVs, false},
		{"lightmap", ChannelLightmapUVs, false},
		{"normals", ChannelNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChannel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
	if Threshold(ChannelTexCoord) != 10 || Threshold(ChannelLightmapUVs) != 3 {
		t.Error("unexpected thresholds")
	}
}

func TestProjector_Inactive(t *testing.T) {
	m := asset.Build("m", nil, asset.LODData{Submeshes: []asset.Geometry{triangles(large...)}})
	p, cache := newProjector(t, m)

	rec := ui2d.NewRecorder(previewSize, previewSize)
	params := DefaultParams()
	params.Channel = ChannelNone
	if res := p.Draw(rec, params); res.Status != StatusInactive {
		t.Errorf("status = %v", res.Status)
	}
	if len(rec.Ops) != 0 {
		t.Errorf("inactive preview drew %d ops", len(rec.Ops))
	}
	if cache.Acquisitions() != 0 {
		t.Error("inactive preview requested mesh data")
	}
}

func TestProjector_LoadingPlaceholder(t *testing.T) {
	m := asset.Build("m", nil, asset.LODData{Submeshes: []asset.Geometry{triangles(large...)}})
	p, cache := newProjector(t, m)

	rec := ui2d.NewRecorder(previewSize, previewSize)
	res := p.Draw(rec, DefaultParams())
	if res.Status != StatusLoading {
		t.Fatalf("status = %v, want loading", res.Status)
	}
	texts := rec.Texts()
	if len(texts) != 1 || texts[0].Text != LoadingText {
		t.Errorf("texts = %+v", texts)
	}
	if len(rec.Lines()) != 0 {
		t.Error("wireframe drawn while loading")
	}
	if !p.NeedsRedraw() {
		t.Error("loading draw did not request a redraw")
	}

	cache.WaitForPending()
	rec.Reset()
	if res := p.Draw(rec, DefaultParams()); res.Status != StatusDrawn || res.Drawn != 1 {
		t.Errorf("second draw = %+v", res)
	}
	if p.NeedsRedraw() {
		t.Error("redraw still requested after drawing")
	}
}

func TestProjector_Culling(t *testing.T) {
	tests := []struct {
		name       string
		channel    Channel
		uvs        []mgl32.Vec2
		wantDrawn  int
		wantCulled int
	}{
		{"degenerate", ChannelTexCoord, degenerate, 0, 1},
		{"at texcoord threshold", ChannelTexCoord, atThreshold, 0, 1},
		{"above texcoord threshold", ChannelTexCoord, large, 1, 0},
		{"small texcoord", ChannelTexCoord, small, 0, 1},
		{"at lightmap threshold", ChannelLightmapUVs, small, 0, 1},
		{"above lightmap threshold", ChannelLightmapUVs, atThreshold, 1, 0},
		{"mixed", ChannelTexCoord, concat(degenerate, atThreshold, large), 1, 2},
		{"nan uv", ChannelTexCoord, nanUV, 0, 1},
		{"inf uv", ChannelLightmapUVs, infUV, 0, 1},
		{"huge uv", ChannelTexCoord, hugeUV, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := asset.Build("m", nil, asset.LODData{Submeshes: []asset.Geometry{triangles(tt.uvs...)}})
			p, cache := newProjector(t, m)

			params := DefaultParams()
			params.Channel = tt.channel
			res, rec := drawReady(t, p, cache, params)
			if res.Drawn != tt.wantDrawn || res.Culled != tt.wantCulled {
				t.Errorf("drawn/culled = %d/%d, want %d/%d", res.Drawn, res.Culled, tt.wantDrawn, tt.wantCulled)
			}
			if got := len(rec.Lines()); got != 3*tt.wantDrawn {
				t.Errorf("lines = %d, want %d", got, 3*tt.wantDrawn)
			}
		})
	}
}

func TestProjector_SkipsBrokenTriangles(t *testing.T) {
	g := triangles(concat(large, large)...)
	g.Indices = append(g.Indices[:3], 0, 1, 42, 0, 1) // out of range, then partial
	m := asset.Build("m", nil, asset.LODData{Submeshes: []asset.Geometry{g}})
	p, cache := newProjector(t, m)

	res, _ := drawReady(t, p, cache, DefaultParams())
	if res.Drawn != 1 || res.Culled != 0 {
		t.Errorf("drawn/culled = %d/%d, want 1/0", res.Drawn, res.Culled)
	}
}

func TestProjector_SubmeshSelection(t *testing.T) {
	m := asset.Build("m", []asset.MaterialSlot{{Name: "a"}, {Name: "b"}},
		asset.LODData{
			Submeshes: []asset.Geometry{triangles(large...), triangles(concat(large, large)...)},
			Slots:     []int{0, 1},
		},
		asset.LODData{
			Submeshes: []asset.Geometry{triangles(large...)},
		},
	)

	tests := []struct {
		name      string
		mutate    func(*Params)
		wantLOD   int
		wantDrawn int
		wantHot   int
	}{
		{"all", func(p *Params) {}, 0, 3, 0},
		{"isolate slot 1", func(p *Params) { p.Isolate = 1 }, 0, 2, 0},
		{"isolate ignored for one submesh", func(p *Params) { p.Isolate = 1; p.Submesh = 0 }, 0, 1, 0},
		{"submesh clamped", func(p *Params) { p.Submesh = 7 }, 0, 2, 0},
		{"highlight submesh 1", func(p *Params) { p.Highlight = 1 }, 0, 3, 2},
		{"LOD clamped", func(p *Params) { p.LOD = 9 }, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, cache := newProjector(t, m)
			params := DefaultParams()
			tt.mutate(&params)

			res, rec := drawReady(t, p, cache, params)
			if res.LOD != tt.wantLOD || res.Drawn != tt.wantDrawn {
				t.Errorf("lod/drawn = %d/%d, want %d/%d", res.LOD, res.Drawn, tt.wantLOD, tt.wantDrawn)
			}
			hot := 0
			for _, l := range rec.Lines() {
				if l.Color == ui2d.ColorWireHot {
					hot++
				}
			}
			if hot != 3*tt.wantHot {
				t.Errorf("highlighted lines = %d, want %d", hot, 3*tt.wantHot)
			}
		})
	}
}

func TestProjector_ClipsToSquare(t *testing.T) {
	m := asset.Build("m", nil, asset.LODData{Submeshes: []asset.Geometry{triangles(large...)}})
	cache := meshcache.New()
	defer cache.Dispose()
	p := New(cache, m, WithPalette(Palette{Background: ui2d.ColorBlack, Wire: ui2d.ColorWhite}))

	rec := ui2d.NewRecorder(100, 40)
	p.Draw(rec, DefaultParams())
	clip := rec.Ops[0]
	if clip.Kind != ui2d.OpClip || clip.X1 != 40 || clip.Y1 != 40 {
		t.Errorf("clip = %+v, want 40x40", clip)
	}
	if bg := rec.Ops[1]; bg.Kind != ui2d.OpRect || bg.Color != ui2d.ColorBlack {
		t.Errorf("background = %+v", bg)
	}
}

func TestProjector_Canvas(t *testing.T) {
	m := asset.Build("m", nil, asset.LODData{Submeshes: []asset.Geometry{triangles(large...)}})
	p, cache := newProjector(t, m)
	p.Draw(ui2d.NewCanvas(64, 64), DefaultParams())
	cache.WaitForPending()

	canvas := ui2d.NewCanvas(64, 64)
	if res := p.Draw(canvas, DefaultParams()); res.Drawn != 1 {
		t.Fatalf("drawn = %d", res.Drawn)
	}
	// The first edge runs along the top row.
	if px := canvas.Image().RGBAAt(10, 0); px.R < 200 {
		t.Errorf("edge pixel = %v", px)
	}
}

func TestProjector_CanvasCorruptUVs(t *testing.T) {
	m := asset.Build("m", nil, asset.LODData{Submeshes: []asset.Geometry{
		triangles(concat(nanUV, hugeUV, large)...),
	}})
	p, cache := newProjector(t, m)
	p.Draw(ui2d.NewCanvas(64, 64), DefaultParams())
	cache.WaitForPending()

	canvas := ui2d.NewCanvas(64, 64)
	done := make(chan Result, 1)
	go func() { done <- p.Draw(canvas, DefaultParams()) }()

	select {
	case res := <-done:
		if res.Drawn != 2 || res.Culled != 1 {
			t.Errorf("drawn/culled = %d/%d, want 2/1", res.Drawn, res.Culled)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("draw did not finish")
	}
	// The huge edge still shows along the top row up to the clip edge.
	if px := canvas.Image().RGBAAt(63, 0); px.R < 200 {
		t.Errorf("clipped edge pixel = %v", px)
	}
}

func TestViewport(t *testing.T) {
	layouts := 0
	v := NewViewport(120, func() { layouts++ })

	if w, h := v.Size(); w != 120 || h != 120 {
		t.Errorf("size = %dx%d", w, h)
	}
	v.Resize(300)
	if w, h := v.Size(); w != 300 || h != 300 {
		t.Errorf("size after resize = %dx%d", w, h)
	}
	v.Resize(-5)
	if w, h := v.Size(); w != 0 || h != 0 {
		t.Errorf("negative resize = %dx%d", w, h)
	}

	if !v.SetVisible(true) || v.SetVisible(true) {
		t.Error("SetVisible should report only transitions")
	}
	v.SetVisible(false)
	if layouts != 2 {
		t.Errorf("layout passes = %d, want 2", layouts)
	}
}
