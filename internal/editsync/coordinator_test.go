package editsync

import (
	"errors"
	"testing"

	"github.com/Faultbox/rsm-inspector/internal/asset"
	"github.com/Faultbox/rsm-inspector/internal/overlay"
)

// echoControls behaves like real widgets: setting a value programmatically
// fires the widget's change handler.
type echoControls struct {
	c *Coordinator

	slotCount int
	selected  map[[2]int]int
	isolate   map[int]bool
	highlight map[int]bool
	events    int
}

func newEchoControls() *echoControls {
	return &echoControls{
		selected:  make(map[[2]int]int),
		isolate:   make(map[int]bool),
		highlight: make(map[int]bool),
	}
}

func (e *echoControls) SetSlotCount(n int) { e.slotCount = n }

func (e *echoControls) SelectSlot(lod, submesh, slot int) {
	e.selected[[2]int{lod, submesh}] = slot
	e.events++
	// Echo a different value to prove it is ignored.
	e.c.SlotHandler(lod, submesh)(slot + 1)
}

func (e *echoControls) SetIsolateChecked(slot int, on bool) {
	e.isolate[slot] = on
	e.events++
	e.c.IsolateHandler(slot)(!on)
}

func (e *echoControls) SetHighlightChecked(slot int, on bool) {
	e.highlight[slot] = on
	e.events++
	e.c.HighlightHandler(slot)(!on)
}

func tri() asset.Geometry {
	return asset.Geometry{Vertices: make([]asset.Vertex, 3), Indices: []uint32{0, 1, 2}}
}

type fixture struct {
	model     *asset.Model
	overlay   *overlay.Overlay
	controls  *echoControls
	primary   *overlay.EntryBuffer
	highlight *overlay.EntryBuffer
	coord     *Coordinator
	edits     int
}

func newFixture() *fixture {
	f := &fixture{
		model: asset.Build("crate", []asset.MaterialSlot{{Name: "wood"}, {Name: "metal"}},
			asset.LODData{Submeshes: []asset.Geometry{tri(), tri()}, Slots: []int{0, 1}},
			asset.LODData{Submeshes: []asset.Geometry{tri()}, Slots: []int{0}},
		),
		overlay:   overlay.New(),
		controls:  newEchoControls(),
		primary:   overlay.NewEntryBuffer(),
		highlight: overlay.NewEntryBuffer(),
	}
	f.coord = New(f.model, f.overlay, f.controls,
		WithSinks(f.primary, f.highlight),
		WithHighlightMaterial("editor/highlight"),
		WithOnEdited(func() { f.edits++ }),
	)
	f.controls.c = f.coord
	return f
}

func TestCoordinator_RefreshSuppressesEchoes(t *testing.T) {
	f := newFixture()
	f.coord.Refresh()

	if f.controls.events == 0 {
		t.Fatal("refresh pushed nothing")
	}
	if f.controls.slotCount != 2 {
		t.Errorf("slot count = %d", f.controls.slotCount)
	}
	if got := f.controls.selected[[2]int{0, 1}]; got != 1 {
		t.Errorf("LOD0 submesh 1 selector = %d, want 1", got)
	}
	if s := f.model.Submeshes(0); s[0].MaterialSlotIndex != 0 || s[1].MaterialSlotIndex != 1 {
		t.Errorf("echoed events changed the model: %+v", s)
	}
	if f.overlay.Isolate() != overlay.None || f.overlay.Highlight() != overlay.None {
		t.Error("echoed events changed the overlay")
	}
	if f.edits != 0 {
		t.Errorf("edits = %d, want 0", f.edits)
	}
	if f.coord.Suppressed() {
		t.Error("suppression left on after refresh")
	}
}

func TestCoordinator_UserEdits(t *testing.T) {
	f := newFixture()

	f.coord.SlotHandler(1, 0)(1)
	if got := f.model.Submeshes(1)[0].MaterialSlotIndex; got != 1 {
		t.Errorf("LOD1 submesh 0 slot = %d, want 1", got)
	}
	if f.edits != 1 {
		t.Errorf("edits = %d, want 1", f.edits)
	}
	if got := f.controls.selected[[2]int{1, 0}]; got != 1 {
		t.Errorf("selector not resynced: %d", got)
	}

	// Same value again is not an edit.
	f.coord.SlotHandler(1, 0)(1)
	if f.edits != 1 {
		t.Errorf("no-op slot change marked edited")
	}

	f.coord.IsolateHandler(1)(true)
	if f.overlay.Isolate() != 1 {
		t.Fatalf("isolate = %d", f.overlay.Isolate())
	}
	if got := f.primary.Entries(0); got[0].Visible || !got[1].Visible {
		t.Errorf("LOD0 entries = %v", got)
	}
	if !f.controls.isolate[1] || f.controls.isolate[0] {
		t.Errorf("isolate checkboxes = %v", f.controls.isolate)
	}
	if f.edits != 1 {
		t.Error("isolate marked the document edited")
	}

	// Unchecking a slot that is not isolated leaves isolation alone.
	f.coord.IsolateHandler(0)(false)
	if f.overlay.Isolate() != 1 {
		t.Error("unchecking another slot cleared isolation")
	}
	f.coord.IsolateHandler(1)(false)
	if f.overlay.Isolate() != overlay.None {
		t.Error("unchecking the isolated slot kept isolation")
	}

	f.coord.HighlightHandler(0)(true)
	if got := f.highlight.Entries(1); len(got) != 0 && got[0].Visible {
		t.Errorf("LOD1 highlight = %v, submesh moved to slot 1", got)
	}
	if got := f.highlight.Entries(0); !got[0].Visible || got[0].MaterialOverride != "editor/highlight" {
		t.Errorf("LOD0 highlight = %v", got)
	}
	f.coord.HighlightHandler(0)(false)
	if f.highlight.Has(0) {
		t.Error("highlight entries not cleared")
	}
}

func TestCoordinator_IsolateWritesOnce(t *testing.T) {
	f := newFixture()
	before := f.primary.Writes()

	if !f.coord.SetIsolate(1) {
		t.Fatal("first SetIsolate reported no change")
	}
	after := f.primary.Writes()
	if f.coord.SetIsolate(1) {
		t.Error("second SetIsolate reported a change")
	}
	if f.primary.Writes() != after {
		t.Error("no-op SetIsolate rewrote entries")
	}
	if after-before != f.model.LODCount() {
		t.Errorf("writes = %d, want one per LOD", after-before)
	}
}

func TestCoordinator_ResizeSlots(t *testing.T) {
	f := newFixture()
	f.coord.SetIsolate(1)
	f.coord.SetHighlight(1)

	if !f.coord.ResizeSlots(1) {
		t.Fatal("resize reported no change")
	}
	if f.controls.slotCount != 1 {
		t.Errorf("controls slot count = %d", f.controls.slotCount)
	}
	if f.overlay.Isolate() != 0 || f.overlay.Highlight() != 0 {
		t.Errorf("overlay not clamped: %d/%d", f.overlay.Isolate(), f.overlay.Highlight())
	}
	if got := f.model.Submeshes(0)[1].MaterialSlotIndex; got != 0 {
		t.Errorf("submesh not clamped: %d", got)
	}
	if f.edits != 1 {
		t.Errorf("edits = %d, want 1", f.edits)
	}
	if f.coord.ResizeSlots(1) {
		t.Error("same-size resize reported a change")
	}
}

func TestCoordinator_OnLoadResets(t *testing.T) {
	f := newFixture()
	f.coord.SetIsolate(0)
	f.coord.SetHighlight(1)

	f.coord.OnLoad()
	if f.overlay.Isolate() != overlay.None || f.overlay.Highlight() != overlay.None {
		t.Error("overlay not reset")
	}
	for i, e := range f.primary.Entries(0) {
		if !e.Visible {
			t.Errorf("submesh %d hidden after load", i)
		}
	}
	if f.highlight.Has(0) {
		t.Error("highlight entries survived load")
	}

	f.coord.SetIsolate(1)
	f.coord.OnClean()
	if f.overlay.Isolate() != overlay.None {
		t.Error("OnClean kept isolation")
	}
}

func TestCoordinator_Errors(t *testing.T) {
	f := newFixture()
	if err := f.coord.SetMaterialSlot(5, 0, 0); !errors.Is(err, asset.ErrLODRange) {
		t.Errorf("err = %v, want ErrLODRange", err)
	}
	if err := f.coord.SetMaterialSlot(0, 9, 0); !errors.Is(err, asset.ErrNoSubmesh) {
		t.Errorf("err = %v, want ErrNoSubmesh", err)
	}
	// Bad UI events are logged and dropped.
	f.coord.SlotHandler(5, 0)(1)

	headless := New(f.model, overlay.New(), nil)
	headless.Refresh()
	if !headless.SetIsolate(1) {
		t.Error("headless coordinator did not isolate")
	}
}

func TestCoordinator_SetSlotMaterial(t *testing.T) {
	f := newFixture()

	if !f.coord.SetSlotMaterial(1, "mat/steel") {
		t.Fatal("material change reported no change")
	}
	if slot, _ := f.model.Slot(1); slot.Material != "mat/steel" {
		t.Errorf("slot material = %q", slot.Material)
	}
	if f.edits != 1 {
		t.Errorf("edits = %d, want 1", f.edits)
	}

	if f.coord.SetSlotMaterial(1, "mat/steel") {
		t.Error("repeated material change reported a change")
	}
	if f.coord.SetSlotMaterial(5, "mat/steel") {
		t.Error("missing slot accepted a material")
	}
	if f.edits != 1 {
		t.Errorf("no-op material change marked edited: %d", f.edits)
	}
}
