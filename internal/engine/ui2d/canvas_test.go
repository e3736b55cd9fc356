package ui2d

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"
	"time"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#ff8000", color.NRGBA{255, 128, 0, 255}, false},
		{"00ff0080", color.NRGBA{0, 255, 0, 128}, false},
		{"#fff", color.NRGBA{}, true},
		{"zzzzzz", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseHex(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.NRGBA() != tt.want {
				t.Errorf("got %v, want %v", c.NRGBA(), tt.want)
			}
		})
	}
}

func TestRect_Intersect(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	if got := a.Intersect(Rect{5, 5, 10, 10}); got != (Rect{5, 5, 5, 5}) {
		t.Errorf("overlap = %v", got)
	}
	if got := a.Intersect(Rect{20, 0, 5, 5}); !got.Empty() {
		t.Errorf("disjoint = %v, want empty", got)
	}
	if !a.Contains(0, 9.5) || a.Contains(10, 0) {
		t.Error("Contains bounds wrong")
	}
}

func TestCanvas_DrawLine(t *testing.T) {
	c := NewCanvas(8, 8)
	c.DrawLine(0, 0, 7, 7, ColorWhite)

	for i := 0; i < 8; i++ {
		if got := c.Image().RGBAAt(i, i); got.A != 255 {
			t.Errorf("diagonal pixel %d not set", i)
		}
	}
	if got := c.Image().RGBAAt(7, 0); got.A != 0 {
		t.Error("pixel off the line was set")
	}
}

func TestCanvas_Clip(t *testing.T) {
	c := NewCanvas(10, 10)
	c.SetClip(0, 0, 5, 5)
	c.DrawLine(0, 2, 9, 2, ColorWhite)
	c.FillRect(3, 3, 10, 10, ColorWhite)

	img := c.Image()
	if img.RGBAAt(4, 2).A != 255 {
		t.Error("pixel inside clip not drawn")
	}
	if img.RGBAAt(6, 2).A != 0 {
		t.Error("line drawn outside clip")
	}
	if img.RGBAAt(4, 4).A != 255 || img.RGBAAt(6, 6).A != 0 {
		t.Error("rect not clipped")
	}

	// Lines entirely outside are rejected early.
	c.SetClip(0, 0, 10, 10)
	c.DrawLine(-50, -5, -1, -20, ColorWhite)
}

func TestCanvas_DrawLineOffCanvas(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	tests := []struct {
		name           string
		x0, y0, x1, y1 float32
		wantX, wantY   int // a pixel that must be lit, or -1
	}{
		{"huge end", 0, 0, 1e9, 0, 5, 0},
		{"huge both ends", -1e9, 3, 1e9, 3, 7, 3},
		{"huge diagonal", 0, 0, 6.4e10, 6.4e10, 4, 4},
		{"nan", 0, 0, nan, 0, -1, -1},
		{"inf", 0, 0, inf, inf, -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(10, 10)
			done := make(chan struct{})
			go func() {
				defer close(done)
				c.DrawLine(tt.x0, tt.y0, tt.x1, tt.y1, ColorWhite)
			}()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("DrawLine did not return")
			}

			img := c.Image()
			if tt.wantX >= 0 {
				if img.RGBAAt(tt.wantX, tt.wantY).A != 255 {
					t.Errorf("pixel (%d,%d) not drawn", tt.wantX, tt.wantY)
				}
				return
			}
			for y := 0; y < 10; y++ {
				for x := 0; x < 10; x++ {
					if img.RGBAAt(x, y).A != 0 {
						t.Fatalf("non-finite line drew pixel (%d,%d)", x, y)
					}
				}
			}
		})
	}
}

func TestCanvas_DrawTextAndPNG(t *testing.T) {
	c := NewCanvas(64, 20)
	c.Clear(ColorBlack)
	c.DrawText(2, 2, "Loading...", ColorWhite)

	lit := 0
	img := c.Image()
	for y := 0; y < 20; y++ {
		for x := 0; x < 64; x++ {
			if img.RGBAAt(x, y).R > 0 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("text drew no pixels")
	}
	if w, h := c.MeasureText("Loading..."); w != 70 || h != 13 {
		t.Errorf("MeasureText = %d,%d, want 70,13", w, h)
	}

	var buf bytes.Buffer
	if err := c.WritePNG(&buf); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds().Dx() != 64 {
		t.Errorf("width = %d", decoded.Bounds().Dx())
	}
}

func TestRecorder(t *testing.T) {
	var s Surface = NewRecorder(32, 32)
	s.SetClip(0, 0, 32, 32)
	s.FillRect(0, 0, 32, 32, ColorPreviewBg)
	s.DrawLine(1, 2, 3, 4, ColorWire)
	s.DrawText(0, 0, "hi", ColorText)

	r := s.(*Recorder)
	if len(r.Ops) != 4 || len(r.Lines()) != 1 || len(r.Texts()) != 1 {
		t.Fatalf("ops = %+v", r.Ops)
	}
	if l := r.Lines()[0]; l.X1 != 3 || l.Color != ColorWire {
		t.Errorf("line = %+v", l)
	}
	r.Reset()
	if len(r.Ops) != 0 {
		t.Error("Reset kept ops")
	}
}
