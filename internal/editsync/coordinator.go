// Package editsync keeps the inspector's UI controls, the overlay state and
// the model's slot assignments consistent, and ignores the change events the
// controls raise while being refreshed programmatically.
package editsync

import (
	"go.uber.org/zap"

	"github.com/Faultbox/rsm-inspector/internal/asset"
	"github.com/Faultbox/rsm-inspector/internal/overlay"
)

// Controls is the UI side: the per-submesh slot selectors and the
// per-slot isolate/highlight checkboxes.
type Controls interface {
	SetSlotCount(n int)
	SelectSlot(lod, submesh, slot int)
	SetIsolateChecked(slot int, on bool)
	SetHighlightChecked(slot int, on bool)
}

// Coordinator routes user edits to the model and overlay and pushes the
// resulting state back to the controls.
type Coordinator struct {
	model    *asset.Model
	overlay  *overlay.Overlay
	controls Controls

	primary   overlay.EntrySink
	highlight overlay.EntrySink
	material  asset.MaterialRef
	onEdited  func()
	log       *zap.Logger

	suppressed bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSinks sets where primary and highlight entries are written.
func WithSinks(primary, highlight overlay.EntrySink) Option {
	return func(c *Coordinator) {
		c.primary = primary
		c.highlight = highlight
	}
}

// WithHighlightMaterial sets the override material of the highlight pass.
func WithHighlightMaterial(mat asset.MaterialRef) Option {
	return func(c *Coordinator) { c.material = mat }
}

// WithOnEdited registers the callback that marks the document edited.
func WithOnEdited(fn func()) Option {
	return func(c *Coordinator) { c.onEdited = fn }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a coordinator. controls may be nil when running headless.
func New(m *asset.Model, o *overlay.Overlay, controls Controls, opts ...Option) *Coordinator {
	c := &Coordinator{
		model:    m,
		overlay:  o,
		controls: controls,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetModel rebinds the coordinator after a reimport. Call OnLoad afterwards.
func (c *Coordinator) SetModel(m *asset.Model) {
	c.model = m
}

// Suppressed reports whether a programmatic refresh is in progress.
func (c *Coordinator) Suppressed() bool {
	return c.suppressed
}

// Refresh pushes the current state into the controls. Change events raised
// by the controls meanwhile are ignored.
func (c *Coordinator) Refresh() {
	if c.controls == nil {
		return
	}
	c.suppressed = true
	defer func() { c.suppressed = false }()

	slots := c.model.SlotCount()
	c.controls.SetSlotCount(slots)
	for lod := 0; lod < c.model.LODCount(); lod++ {
		for _, s := range c.model.Submeshes(lod) {
			c.controls.SelectSlot(lod, s.Index, s.MaterialSlotIndex)
		}
	}
	for slot := 0; slot < slots; slot++ {
		c.controls.SetIsolateChecked(slot, c.overlay.Isolate() == slot)
		c.controls.SetHighlightChecked(slot, c.overlay.Highlight() == slot)
	}
}

// SlotHandler returns the change handler of one submesh's slot selector.
func (c *Coordinator) SlotHandler(lod, submesh int) func(slot int) {
	return func(slot int) {
		if c.suppressed {
			return
		}
		if err := c.SetMaterialSlot(lod, submesh, slot); err != nil {
			c.log.Warn("slot change rejected",
				zap.Int("lod", lod), zap.Int("submesh", submesh), zap.Error(err))
		}
	}
}

// IsolateHandler returns the change handler of one slot's isolate checkbox.
// Unchecking the isolated slot clears the isolation.
func (c *Coordinator) IsolateHandler(slot int) func(on bool) {
	return func(on bool) {
		if c.suppressed {
			return
		}
		if on {
			c.SetIsolate(slot)
		} else if c.overlay.Isolate() == slot {
			c.SetIsolate(overlay.None)
		}
	}
}

// HighlightHandler returns the change handler of one slot's highlight checkbox.
func (c *Coordinator) HighlightHandler(slot int) func(on bool) {
	return func(on bool) {
		if c.suppressed {
			return
		}
		if on {
			c.SetHighlight(slot)
		} else if c.overlay.Highlight() == slot {
			c.SetHighlight(overlay.None)
		}
	}
}

// SetMaterialSlot binds a submesh to a slot and marks the document edited
// when the binding changed.
func (c *Coordinator) SetMaterialSlot(lod, submesh, slot int) error {
	changed, err := c.model.SetSubmeshSlot(lod, submesh, slot)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	c.log.Debug("submesh slot changed",
		zap.Int("lod", lod), zap.Int("submesh", submesh), zap.Int("slot", slot))
	c.apply()
	c.Refresh()
	c.edited()
	return nil
}

// SetSlotMaterial assigns a material to a slot and marks the document
// edited when it changed.
func (c *Coordinator) SetSlotMaterial(slot int, mat asset.MaterialRef) bool {
	if !c.model.SetSlotMaterial(slot, mat) {
		return false
	}
	c.log.Debug("slot material changed", zap.Int("slot", slot), zap.String("material", string(mat)))
	c.Refresh()
	c.edited()
	return true
}

// SetIsolate isolates a slot, or clears isolation with overlay.None.
func (c *Coordinator) SetIsolate(slot int) bool {
	if !c.overlay.SetIsolate(slot, c.model.SlotCount()) {
		return false
	}
	c.apply()
	c.Refresh()
	return true
}

// SetHighlight highlights a slot, or clears the highlight with overlay.None.
func (c *Coordinator) SetHighlight(slot int) bool {
	if !c.overlay.SetHighlight(slot, c.model.SlotCount()) {
		return false
	}
	c.apply()
	c.Refresh()
	return true
}

// ResizeSlots changes the slot count. Overlay indices past the new count
// are clamped along with the submesh bindings.
func (c *Coordinator) ResizeSlots(n int) bool {
	if !c.model.ResizeSlots(n) {
		return false
	}
	count := c.model.SlotCount()
	c.overlay.SetIsolate(c.overlay.Isolate(), count)
	c.overlay.SetHighlight(c.overlay.Highlight(), count)
	c.log.Debug("material slots resized", zap.Int("count", count))
	c.apply()
	c.Refresh()
	c.edited()
	return true
}

// OnLoad resets the overlay when the panel is loaded with an asset.
func (c *Coordinator) OnLoad() {
	c.overlay.Reset()
	c.apply()
	c.Refresh()
}

// OnClean resets the overlay when the panel is unloaded.
func (c *Coordinator) OnClean() {
	c.OnLoad()
}

func (c *Coordinator) apply() {
	c.overlay.Apply(c.model, c.primary, c.highlight, c.material)
}

func (c *Coordinator) edited() {
	if c.onEdited != nil {
		c.onEdited()
	}
}
