package ui2d

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Canvas is a Surface backed by an in-memory RGBA image.
type Canvas struct {
	img  *image.RGBA
	clip Rect
	face font.Face
}

// NewCanvas creates a transparent canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	width, height = max(width, 0), max(height, 0)
	return &Canvas{
		img:  image.NewRGBA(image.Rect(0, 0, width, height)),
		clip: Rect{W: float32(width), H: float32(height)},
		face: basicfont.Face7x13,
	}
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// SetClip limits drawing to a rectangle inside the canvas.
func (c *Canvas) SetClip(x, y, w, h float32) {
	cw, ch := c.Size()
	c.clip = Rect{X: x, Y: y, W: w, H: h}.Intersect(Rect{W: float32(cw), H: float32(ch)})
}

// clipBounds returns the clip rectangle in whole pixels.
func (c *Canvas) clipBounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(float64(c.clip.X))),
		int(math.Floor(float64(c.clip.Y))),
		int(math.Ceil(float64(c.clip.X+c.clip.W))),
		int(math.Ceil(float64(c.clip.Y+c.clip.H))),
	).Intersect(c.img.Bounds())
}

// FillRect fills a rectangle, blending over existing pixels.
func (c *Canvas) FillRect(x, y, w, h float32, col Color) {
	r := Rect{X: x, Y: y, W: w, H: h}.Intersect(c.clip)
	if r.Empty() {
		return
	}
	dst := image.Rect(
		int(math.Floor(float64(r.X))),
		int(math.Floor(float64(r.Y))),
		int(math.Ceil(float64(r.X+r.W))),
		int(math.Ceil(float64(r.Y+r.H))),
	).Intersect(c.clipBounds())
	draw.Draw(c.img, dst, image.NewUniform(col.NRGBA()), image.Point{}, draw.Over)
}

// DrawLine draws a one pixel wide line using Bresenham's algorithm. The
// segment is clipped first, so only visible pixels are stepped.
func (c *Canvas) DrawLine(x0, y0, x1, y1 float32, col Color) {
	clip := c.clipBounds()
	if clip.Empty() {
		return
	}
	fx0, fy0, fx1, fy1, ok := clipSegment(float64(x0), float64(y0), float64(x1), float64(y1), clip)
	if !ok {
		return
	}
	ax, ay := int(math.Floor(fx0)), int(math.Floor(fy0))
	bx, by := int(math.Floor(fx1)), int(math.Floor(fy1))

	px := col.NRGBA()
	dx, dy := abs(bx-ax), -abs(by-ay)
	sx, sy := 1, 1
	if ax > bx {
		sx = -1
	}
	if ay > by {
		sy = -1
	}
	e := dx + dy
	for {
		if image.Pt(ax, ay).In(clip) {
			c.img.Set(ax, ay, px)
		}
		if ax == bx && ay == by {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			ax += sx
		}
		if e2 <= dx {
			e += dx
			ay += sy
		}
	}
}

// clipEdge keeps clipped coordinates inside the last pixel row/column.
const clipEdge = 1e-3

// clipSegment clips a segment to r (Liang-Barsky). ok is false when the
// segment misses r or has a non-finite coordinate.
func clipSegment(x0, y0, x1, y1 float64, r image.Rectangle) (cx0, cy0, cx1, cy1 float64, ok bool) {
	for _, v := range [4]float64{x0, y0, x1, y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, 0, 0, false
		}
	}

	xmin, ymin := float64(r.Min.X), float64(r.Min.Y)
	xmax, ymax := float64(r.Max.X)-clipEdge, float64(r.Max.Y)-clipEdge
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	for _, edge := range [4][2]float64{
		{-dx, x0 - xmin},
		{dx, xmax - x0},
		{-dy, y0 - ymin},
		{dy, ymax - y0},
	} {
		p, q := edge[0], edge[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, t)
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, t)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

// DrawText draws text in the 7x13 bitmap face with its top-left corner
// at (x, y). Newlines start a new row.
func (c *Canvas) DrawText(x, y float32, text string, col Color) {
	clip := c.clipBounds()
	if clip.Empty() {
		return
	}
	dst, ok := c.img.SubImage(clip).(*image.RGBA)
	if !ok {
		return
	}

	m := c.face.Metrics()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col.NRGBA()),
		Face: c.face,
	}
	lineY := int(y) + m.Ascent.Ceil()
	start := 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) && text[i] != '\n' {
			continue
		}
		d.Dot = fixed.P(int(x), lineY)
		d.DrawString(text[start:i])
		lineY += m.Height.Ceil()
		start = i + 1
	}
}

// MeasureText returns the pixel width and height of a single line.
func (c *Canvas) MeasureText(text string) (int, int) {
	return font.MeasureString(c.face, text).Ceil(), c.face.Metrics().Height.Ceil()
}

// Clear fills the whole canvas, ignoring the clip.
func (c *Canvas) Clear(col Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col.NRGBA()), image.Point{}, draw.Src)
}

// WritePNG encodes the canvas as PNG.
func (c *Canvas) WritePNG(w io.Writer) error {
	return png.Encode(w, c.img)
}

// SavePNG writes the canvas to a PNG file, creating parent directories.
func (c *Canvas) SavePNG(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := c.WritePNG(f); err != nil {
		f.Close()
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return f.Close()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
