package ui2d

// OpKind identifies a recorded primitive.
type OpKind int

const (
	OpLine OpKind = iota
	OpRect
	OpClip
	OpText
)

// Op is one recorded draw call. Line ends are (X0,Y0)-(X1,Y1); rects and
// clips use X0,Y0 as origin and X1,Y1 as size.
type Op struct {
	Kind           OpKind
	X0, Y0, X1, Y1 float32
	Text           string
	Color          Color
}

// Recorder is a Surface that records draw calls instead of rasterizing.
type Recorder struct {
	W, H int
	Ops  []Op
}

// NewRecorder creates a recorder reporting the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{W: width, H: height}
}

func (r *Recorder) Size() (int, int) { return r.W, r.H }

func (r *Recorder) DrawLine(x0, y0, x1, y1 float32, c Color) {
	r.Ops = append(r.Ops, Op{Kind: OpLine, X0: x0, Y0: y0, X1: x1, Y1: y1, Color: c})
}

func (r *Recorder) FillRect(x, y, w, h float32, c Color) {
	r.Ops = append(r.Ops, Op{Kind: OpRect, X0: x, Y0: y, X1: w, Y1: h, Color: c})
}

func (r *Recorder) SetClip(x, y, w, h float32) {
	r.Ops = append(r.Ops, Op{Kind: OpClip, X0: x, Y0: y, X1: w, Y1: h})
}

func (r *Recorder) DrawText(x, y float32, text string, c Color) {
	r.Ops = append(r.Ops, Op{Kind: OpText, X0: x, Y0: y, Text: text, Color: c})
}

// Lines returns the recorded lines.
func (r *Recorder) Lines() []Op {
	return r.filter(OpLine)
}

// Texts returns the recorded text draws.
func (r *Recorder) Texts() []Op {
	return r.filter(OpText)
}

func (r *Recorder) filter(kind OpKind) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Reset drops all recorded calls.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
}
