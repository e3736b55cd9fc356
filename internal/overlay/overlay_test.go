package overlay

import (
	"reflect"
	"testing"

	"github.com/Faultbox/rsm-inspector/internal/asset"
)

func tri() asset.Geometry {
	return asset.Geometry{Vertices: make([]asset.Vertex, 3), Indices: []uint32{0, 1, 2}}
}

// twoLODModel has two slots; LOD0 submeshes use slots 0 and 1, LOD1 a
// single submesh on slot 0.
func twoLODModel() *asset.Model {
	return asset.Build("crate", []asset.MaterialSlot{{Name: "wood"}, {Name: "metal"}},
		asset.LODData{Submeshes: []asset.Geometry{tri(), tri()}, Slots: []int{0, 1}},
		asset.LODData{Submeshes: []asset.Geometry{tri()}, Slots: []int{0}},
	)
}

func TestOverlay_SetIsolateClamps(t *testing.T) {
	tests := []struct {
		name      string
		idx       int
		slotCount int
		want      int
	}{
		{"none", -1, 3, None},
		{"below none", -7, 3, None},
		{"valid", 1, 3, 1},
		{"past end", 9, 3, 2},
		{"no slots", 2, 0, None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New()
			o.SetIsolate(tt.idx, tt.slotCount)
			if o.Isolate() != tt.want {
				t.Errorf("isolate = %d, want %d", o.Isolate(), tt.want)
			}
			o.SetHighlight(tt.idx, tt.slotCount)
			if o.Highlight() != tt.want {
				t.Errorf("highlight = %d, want %d", o.Highlight(), tt.want)
			}
		})
	}
}

func TestOverlay_Idempotent(t *testing.T) {
	m := twoLODModel()
	o := New()
	primary := NewEntryBuffer()

	for i := 0; i < 2; i++ {
		if o.SetIsolate(1, m.SlotCount()) {
			o.Apply(m, primary, nil, "")
		}
	}
	if got := primary.Writes(); got != m.LODCount() {
		t.Errorf("entry writes = %d, want %d", got, m.LODCount())
	}
	if o.SetHighlight(None, 2) {
		t.Error("highlight None on fresh overlay reported a change")
	}
}

func TestOverlay_ComputeEntries(t *testing.T) {
	subs := []asset.Submesh{
		{Index: 0, MaterialSlotIndex: 0},
		{Index: 1, MaterialSlotIndex: 2},
		{Index: 2, MaterialSlotIndex: 0},
	}

	for isolate := None; isolate < 3; isolate++ {
		o := New()
		o.SetIsolate(isolate, 3)
		for i, e := range o.ComputeEntries(subs) {
			want := isolate == None || isolate == subs[i].MaterialSlotIndex
			if e.Visible != want {
				t.Errorf("isolate %d submesh %d: visible = %v, want %v", isolate, i, e.Visible, want)
			}
			if e.MaterialOverride != "" {
				t.Errorf("primary entry carries override %q", e.MaterialOverride)
			}
		}
	}
}

func TestOverlay_HighlightEntries(t *testing.T) {
	subs := []asset.Submesh{{MaterialSlotIndex: 0}, {MaterialSlotIndex: 1}}
	o := New()

	if got := o.ComputeHighlightEntries(subs, "hl"); got != nil {
		t.Errorf("no highlight: got %v, want nil", got)
	}

	o.SetHighlight(1, 2)
	o.SetIsolate(1, 2)
	want := []Entry{{}, {Visible: true, MaterialOverride: "hl"}}
	if got := o.ComputeHighlightEntries(subs, "hl"); !reflect.DeepEqual(got, want) {
		t.Errorf("highlight entries = %v, want %v", got, want)
	}
	// Isolate and highlight compose: the highlighted submesh stays visible
	// in the primary pass.
	if !o.ComputeEntries(subs)[1].Visible {
		t.Error("isolated submesh hidden while highlighted")
	}
}

func TestOverlay_ApplyTwoLODs(t *testing.T) {
	m := twoLODModel()
	o := New()
	primary, highlight := NewEntryBuffer(), NewEntryBuffer()

	o.SetIsolate(1, m.SlotCount())
	o.Apply(m, primary, highlight, "hl")

	if got := primary.Entries(0); !reflect.DeepEqual(got, []Entry{{Visible: false}, {Visible: true}}) {
		t.Errorf("LOD0 = %v", got)
	}
	if got := primary.Entries(1); !reflect.DeepEqual(got, []Entry{{Visible: false}}) {
		t.Errorf("LOD1 = %v", got)
	}
	if highlight.Has(0) || highlight.Has(1) {
		t.Error("highlight entries written without a highlight")
	}

	o.SetHighlight(0, m.SlotCount())
	o.Apply(m, primary, highlight, "hl")
	if got := highlight.Entries(1); !reflect.DeepEqual(got, []Entry{{Visible: true, MaterialOverride: "hl"}}) {
		t.Errorf("LOD1 highlight = %v", got)
	}

	// A slot change on LOD1 is picked up on the next apply.
	if _, err := m.SetSubmeshSlot(1, 0, 1); err != nil {
		t.Fatal(err)
	}
	o.Apply(m, primary, highlight, "hl")
	if got := primary.Entries(1); !got[0].Visible {
		t.Error("LOD1 submesh moved to the isolated slot but stays hidden")
	}

	if !o.Reset() {
		t.Error("Reset reported no change")
	}
	o.Apply(m, primary, highlight, "hl")
	if highlight.Has(0) || highlight.Has(1) {
		t.Error("highlight entries not cleared after reset")
	}
	for lod := 0; lod < 2; lod++ {
		for i, e := range primary.Entries(lod) {
			if !e.Visible {
				t.Errorf("LOD%d submesh %d hidden after reset", lod, i)
			}
		}
	}
	if o.Reset() {
		t.Error("second Reset reported a change")
	}
}
