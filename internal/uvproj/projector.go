package uvproj

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/rsm-inspector/internal/asset"
	"github.com/Faultbox/rsm-inspector/internal/engine/ui2d"
	"github.com/Faultbox/rsm-inspector/internal/meshcache"
	"github.com/Faultbox/rsm-inspector/internal/overlay"
)

// LoadingText is drawn while mesh data is being acquired.
const LoadingText = "Loading..."

// Status is the outcome of one Draw call.
type Status int

const (
	StatusInactive Status = iota
	StatusLoading
	StatusDrawn
)

func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusLoading:
		return "loading"
	case StatusDrawn:
		return "drawn"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Params selects what to draw. Submesh, Highlight and Isolate use -1 for
// all / none.
type Params struct {
	Channel   Channel
	LOD       int
	Submesh   int
	Highlight int
	Isolate   int
}

// DefaultParams previews every submesh of LOD 0 on the main UV channel.
func DefaultParams() Params {
	return Params{
		Channel:   ChannelTexCoord,
		Submesh:   -1,
		Highlight: overlay.None,
		Isolate:   overlay.None,
	}
}

// Result reports what a Draw call produced.
type Result struct {
	Status Status
	LOD    int
	Drawn  int
	Culled int
}

// Palette holds the preview colors.
type Palette struct {
	Background ui2d.Color
	Wire       ui2d.Color
	Highlight  ui2d.Color
	Text       ui2d.Color
}

// DefaultPalette returns the built-in preview colors.
func DefaultPalette() Palette {
	return Palette{
		Background: ui2d.ColorPreviewBg,
		Wire:       ui2d.ColorWire,
		Highlight:  ui2d.ColorWireHot,
		Text:       ui2d.ColorText,
	}
}

// Projector draws UV wireframes of one model.
type Projector struct {
	cache   *meshcache.Cache
	model   *asset.Model
	palette Palette
	log     *zap.Logger

	needsRedraw bool
}

// Option configures a Projector.
type Option func(*Projector)

// WithPalette overrides the preview colors.
func WithPalette(p Palette) Option {
	return func(pr *Projector) { pr.palette = p }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(pr *Projector) {
		if log != nil {
			pr.log = log
		}
	}
}

// New creates a projector reading model geometry through cache.
func New(cache *meshcache.Cache, model *asset.Model, opts ...Option) *Projector {
	p := &Projector{
		cache:   cache,
		model:   model,
		palette: DefaultPalette(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetModel switches the previewed model.
func (p *Projector) SetModel(m *asset.Model) {
	p.model = m
}

// NeedsRedraw reports whether the last Draw was waiting on data and should
// be repeated on the next tick.
func (p *Projector) NeedsRedraw() bool {
	return p.needsRedraw
}

// Draw renders the preview onto s. The drawing area is the largest square
// in the top-left corner of the surface.
func (p *Projector) Draw(s ui2d.Surface, params Params) Result {
	if params.Channel == ChannelNone {
		p.needsRedraw = false
		return Result{Status: StatusInactive}
	}

	w, h := s.Size()
	side := float32(min(w, h))
	s.SetClip(0, 0, side, side)
	s.FillRect(0, 0, side, side, p.palette.Background)

	// A model still streaming is reported as loading without starting an
	// acquisition that would fail.
	if p.model == nil || !p.model.Loaded() || !p.cache.RequestData(p.model) {
		s.DrawText(4, 4, LoadingText, p.palette.Text)
		p.needsRedraw = true
		return Result{Status: StatusLoading}
	}
	p.needsRedraw = false

	res := Result{Status: StatusDrawn}
	lodCount := p.cache.LODCount()
	if lodCount == 0 {
		return res
	}
	res.LOD = asset.Clamp(params.LOD, 0, lodCount-1)
	bufs, ok := p.cache.Buffers(res.LOD)
	if !ok {
		return res
	}

	threshold := Threshold(params.Channel)
	for _, sub := range p.selectSubmeshes(res.LOD, len(bufs), params) {
		col := p.palette.Wire
		if sub == params.Highlight {
			col = p.palette.Highlight
		}
		drawn, culled := drawBuffer(s, bufs[sub], params.Channel, side, threshold, col)
		res.Drawn += drawn
		res.Culled += culled
	}

	p.log.Debug("uv preview drawn",
		zap.Stringer("channel", params.Channel),
		zap.Int("lod", res.LOD),
		zap.Int("drawn", res.Drawn),
		zap.Int("culled", res.Culled))
	return res
}

// selectSubmeshes returns the submesh indices to draw: one clamped index,
// or all of them filtered by the isolated slot.
func (p *Projector) selectSubmeshes(lod, count int, params Params) []int {
	if count == 0 {
		return nil
	}
	if params.Submesh >= 0 {
		return []int{asset.Clamp(params.Submesh, 0, count-1)}
	}

	subs := p.model.Submeshes(lod)
	out := make([]int, 0, count)
	for i := 0; i < count; i++ {
		if params.Isolate != overlay.None {
			if i >= len(subs) || subs[i].MaterialSlotIndex != params.Isolate {
				continue
			}
		}
		out = append(out, i)
	}
	return out
}

func drawBuffer(s ui2d.Surface, buf meshcache.MeshBuffer, ch Channel, side, threshold float32, col ui2d.Color) (drawn, culled int) {
	for i := 0; i < buf.TriangleCount(); i++ {
		tri, ok := buf.Triangle(i)
		if !ok {
			continue
		}
		a := ch.uv(tri[0]).Mul(side)
		b := ch.uv(tri[1]).Mul(side)
		c := ch.uv(tri[2]).Mul(side)
		// NaN areas fail the comparison and are culled too.
		if !finite(a) || !finite(b) || !finite(c) || !(TriangleArea(a, b, c) > threshold) {
			culled++
			continue
		}
		edge(s, a, b, col)
		edge(s, b, c, col)
		edge(s, c, a, col)
		drawn++
	}
	return drawn, culled
}

func finite(v mgl32.Vec2) bool {
	for _, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return false
		}
	}
	return true
}

func edge(s ui2d.Surface, a, b mgl32.Vec2, col ui2d.Color) {
	s.DrawLine(a.X(), a.Y(), b.X(), b.Y(), col)
}
