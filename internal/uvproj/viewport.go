package uvproj

// Viewport is the square area the preview is drawn into. Its height
// always tracks its width.
type Viewport struct {
	width    int
	height   int
	visible  bool
	onLayout func()
}

// NewViewport creates a hidden viewport. onLayout is called whenever the
// viewport is shown or hidden so the containing panel can re-flow.
func NewViewport(width int, onLayout func()) *Viewport {
	v := &Viewport{onLayout: onLayout}
	v.Resize(width)
	return v
}

// Resize sets the width and forces the height to match.
func (v *Viewport) Resize(width int) {
	v.width = max(width, 0)
	v.height = v.width
}

// SetVisible shows or hides the viewport. A layout pass is requested only
// on an actual transition. Returns whether visibility changed.
func (v *Viewport) SetVisible(visible bool) bool {
	if visible == v.visible {
		return false
	}
	v.visible = visible
	v.height = v.width
	if v.onLayout != nil {
		v.onLayout()
	}
	return true
}

// Visible reports whether the viewport is shown.
func (v *Viewport) Visible() bool { return v.visible }

// Size returns the viewport dimensions.
func (v *Viewport) Size() (int, int) { return v.width, v.height }
