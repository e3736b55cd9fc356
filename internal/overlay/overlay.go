// Package overlay holds the isolate/highlight state of the inspector and
// turns it into per-submesh render entries for every LOD.
package overlay

import (
	"github.com/Faultbox/rsm-inspector/internal/asset"
)

// None marks an unset isolate or highlight index.
const None = -1

// Entry is a per-submesh render override consumed by the render layer.
type Entry struct {
	Visible          bool
	MaterialOverride asset.MaterialRef // empty means no override
}

// EntrySink receives computed entries, one call per LOD.
type EntrySink interface {
	SetEntries(lod int, entries []Entry)
	ClearEntries(lod int)
}

// Overlay is the isolate/highlight state machine. Both indices refer to a
// material slot, so they apply to every submesh bound to that slot on
// every LOD.
type Overlay struct {
	isolate   int
	highlight int
}

// New creates an overlay with nothing isolated or highlighted.
func New() *Overlay {
	return &Overlay{isolate: None, highlight: None}
}

// Isolate returns the isolated slot, or None.
func (o *Overlay) Isolate() int { return o.isolate }

// Highlight returns the highlighted slot, or None.
func (o *Overlay) Highlight() int { return o.highlight }

// SetIsolate isolates a slot. Returns false when nothing changed.
func (o *Overlay) SetIsolate(idx, slotCount int) bool {
	idx = clampIndex(idx, slotCount)
	if idx == o.isolate {
		return false
	}
	o.isolate = idx
	return true
}

// SetHighlight highlights a slot. Returns false when nothing changed.
func (o *Overlay) SetHighlight(idx, slotCount int) bool {
	idx = clampIndex(idx, slotCount)
	if idx == o.highlight {
		return false
	}
	o.highlight = idx
	return true
}

// Reset clears both indices.
func (o *Overlay) Reset() bool {
	changed := o.isolate != None || o.highlight != None
	o.isolate = None
	o.highlight = None
	return changed
}

// clampIndex keeps UI-originated indices inside [-1, slotCount).
func clampIndex(idx, slotCount int) int {
	if slotCount <= 0 || idx < None {
		return None
	}
	return asset.Clamp(idx, None, slotCount-1)
}

// ComputeEntries returns the primary entries for one LOD's submeshes.
func (o *Overlay) ComputeEntries(subs []asset.Submesh) []Entry {
	entries := make([]Entry, len(subs))
	for i, s := range subs {
		entries[i].Visible = o.isolate == None || o.isolate == s.MaterialSlotIndex
	}
	return entries
}

// ComputeHighlightEntries returns the highlight pass entries for one LOD,
// or nil when nothing is highlighted.
func (o *Overlay) ComputeHighlightEntries(subs []asset.Submesh, mat asset.MaterialRef) []Entry {
	if o.highlight == None {
		return nil
	}
	entries := make([]Entry, len(subs))
	for i, s := range subs {
		if o.highlight == s.MaterialSlotIndex {
			entries[i] = Entry{Visible: true, MaterialOverride: mat}
		}
	}
	return entries
}

// Apply writes the current state to the sinks for every LOD of m. Either
// sink may be nil.
func (o *Overlay) Apply(m *asset.Model, primary, highlight EntrySink, mat asset.MaterialRef) {
	for lod := 0; lod < m.LODCount(); lod++ {
		subs := m.Submeshes(lod)
		if primary != nil {
			primary.SetEntries(lod, o.ComputeEntries(subs))
		}
		if highlight == nil {
			continue
		}
		if entries := o.ComputeHighlightEntries(subs, mat); entries != nil {
			highlight.SetEntries(lod, entries)
		} else {
			highlight.ClearEntries(lod)
		}
	}
}
