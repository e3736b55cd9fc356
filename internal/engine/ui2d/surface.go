// Package ui2d is the immediate-mode 2D drawing layer of the inspector.
// Callers draw against a Surface; Canvas rasterizes on the CPU and
// Recorder keeps the primitives for inspection.
package ui2d

// Surface is an immediate-mode 2D drawing target. Coordinates are pixels
// with the origin at the top-left corner.
type Surface interface {
	Size() (w, h int)
	DrawLine(x0, y0, x1, y1 float32, c Color)
	FillRect(x, y, w, h float32, c Color)
	// SetClip limits all later drawing to the given rectangle.
	SetClip(x, y, w, h float32)
	// DrawText draws text with its top-left corner at (x, y).
	DrawText(x, y float32, text string, c Color)
}

// Rect is a simple rectangle struct.
type Rect struct {
	X, Y, W, H float32
}

// Contains checks if a point is inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Intersect returns the overlap of two rectangles. The result has zero
// size when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.W, o.X+o.W), min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}
