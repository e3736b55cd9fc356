package asset

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Model is a multi-LOD model asset. Geometry streams in per LOD; the model
// counts as loaded once every LOD has arrived. Each (re)import gets a new
// Revision so consumers can tell stale data apart.
type Model struct {
	id   uuid.UUID
	name string

	mu       sync.RWMutex
	revision uuid.UUID
	slots    []MaterialSlot
	lods     []*LOD
	geometry [][]Geometry
	streamed int
	unloaded bool
	loadErr  error
	loaded   chan struct{}
}

// NewModel creates an empty model expecting lodCount LODs.
func NewModel(name string, slots []MaterialSlot, lodCount int) *Model {
	m := &Model{
		id:   uuid.New(),
		name: name,
	}
	m.Reset(slots, lodCount)
	return m
}

// Build creates a model and streams all LODs immediately.
func Build(name string, slots []MaterialSlot, lods ...LODData) *Model {
	m := NewModel(name, slots, len(lods))
	rev := m.Revision()
	for i, data := range lods {
		m.StreamLOD(rev, i, data)
	}
	return m
}

// Reset discards all LODs and geometry and starts a new revision. Used on
// reimport. Returns the new revision to pass to StreamLOD.
func (m *Model) Reset(slots []MaterialSlot, lodCount int) uuid.UUID {
	if lodCount < 0 {
		lodCount = 0
	}
	if len(slots) == 0 {
		slots = []MaterialSlot{DefaultSlot(0)}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.revision = uuid.New()
	m.slots = make([]MaterialSlot, len(slots))
	for i, s := range slots {
		s.Index = i
		m.slots[i] = s
	}
	m.lods = make([]*LOD, lodCount)
	for i := range m.lods {
		m.lods[i] = &LOD{Index: i}
	}
	m.geometry = make([][]Geometry, lodCount)
	m.streamed = 0
	m.unloaded = false
	m.loadErr = nil
	m.loaded = make(chan struct{})
	if lodCount == 0 {
		close(m.loaded)
	}
	return m.revision
}

// SetStreamedSlots replaces the slots of revision rev before any LOD has
// arrived. Used when the slots come from the geometry files themselves.
func (m *Model) SetStreamedSlots(rev uuid.UUID, slots []MaterialSlot) bool {
	if len(slots) == 0 {
		slots = []MaterialSlot{DefaultSlot(0)}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if rev != m.revision || m.unloaded || m.loadErr != nil || m.streamed != 0 {
		return false
	}
	m.slots = make([]MaterialSlot, len(slots))
	for i, s := range slots {
		s.Index = i
		m.slots[i] = s
	}
	return true
}

// StreamLOD delivers one LOD's geometry for revision rev. Deliveries for an
// older revision or a LOD that already arrived are dropped.
func (m *Model) StreamLOD(rev uuid.UUID, lod int, data LODData) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rev != m.revision || m.unloaded || m.loadErr != nil {
		return false
	}
	if lod < 0 || lod >= len(m.lods) || m.geometry[lod] != nil {
		return false
	}

	subs := make([]*Submesh, len(data.Submeshes))
	for i, g := range data.Submeshes {
		slot := 0
		if i < len(data.Slots) {
			slot = data.Slots[i]
		}
		subs[i] = &Submesh{
			LOD:               lod,
			Index:             i,
			MaterialSlotIndex: NormalizeSlot(slot, len(m.slots)),
			TriangleCount:     g.TriangleCount(),
			VertexCount:       len(g.Vertices),
		}
	}
	m.lods[lod].ScreenSize = data.ScreenSize
	m.lods[lod].Submeshes = subs

	geo := data.Submeshes
	if geo == nil {
		geo = []Geometry{}
	}
	m.geometry[lod] = geo
	m.streamed++
	if m.streamed == len(m.lods) {
		close(m.loaded)
	}
	return true
}

// FailLoad records that streaming revision rev could not complete.
// The model stays unloaded until the next Reset.
func (m *Model) FailLoad(rev uuid.UUID, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rev != m.revision || m.loadErr != nil || m.unloaded {
		return false
	}
	m.loadErr = err
	if m.streamed != len(m.lods) {
		close(m.loaded)
	}
	return true
}

// LoadErr returns the streaming failure of the current revision, if any.
func (m *Model) LoadErr() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadErr
}

// ID returns the stable identity of the asset.
func (m *Model) ID() uuid.UUID { return m.id }

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Revision returns the current import revision.
func (m *Model) Revision() uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}

// Loaded reports whether every LOD has streamed in.
func (m *Model) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.unloaded && m.loadErr == nil && m.streamed == len(m.lods)
}

// WaitLoaded blocks until the model is loaded or ctx is done.
// Tools only; the interactive path polls Loaded instead.
func (m *Model) WaitLoaded(ctx context.Context) error {
	m.mu.RLock()
	ch := m.loaded
	m.mu.RUnlock()

	select {
	case <-ch:
		m.mu.RLock()
		defer m.mu.RUnlock()
		if m.unloaded {
			return ErrUnloaded
		}
		return m.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unload releases the streamed geometry. Later decodes fail with ErrUnloaded.
func (m *Model) Unload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unloaded {
		return
	}
	m.unloaded = true
	m.geometry = make([][]Geometry, len(m.lods))
	if m.streamed != len(m.lods) && m.loadErr == nil {
		close(m.loaded)
	}
}

// LODCount returns the number of LODs.
func (m *Model) LODCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lods)
}

// LODs returns the LOD list. The returned LODs must only be mutated
// through Model methods.
func (m *Model) LODs() []*LOD {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*LOD, len(m.lods))
	copy(out, m.lods)
	return out
}

// Submeshes returns a snapshot of the submeshes of one LOD.
func (m *Model) Submeshes(lod int) []Submesh {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if lod < 0 || lod >= len(m.lods) {
		return nil
	}
	out := make([]Submesh, len(m.lods[lod].Submeshes))
	for i, s := range m.lods[lod].Submeshes {
		out[i] = *s
	}
	return out
}

// DecodeLOD returns the streamed geometry of one LOD, one entry per
// submesh in asset order. The slices are shared and must not be modified.
func (m *Model) DecodeLOD(lod int) ([]Geometry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.unloaded {
		return nil, ErrUnloaded
	}
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.streamed != len(m.lods) {
		return nil, ErrNotLoaded
	}
	if lod < 0 || lod >= len(m.lods) {
		return nil, ErrLODRange
	}
	return m.geometry[lod], nil
}

// SlotCount returns the number of material slots.
func (m *Model) SlotCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.slots)
}

// Slots returns a copy of the material slots.
func (m *Model) Slots() []MaterialSlot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MaterialSlot, len(m.slots))
	copy(out, m.slots)
	return out
}

// Slot returns one material slot.
func (m *Model) Slot(index int) (MaterialSlot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= len(m.slots) {
		return MaterialSlot{}, false
	}
	return m.slots[index], true
}

// SetSlotMaterial assigns a material to a slot.
func (m *Model) SetSlotMaterial(index int, mat MaterialRef) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.slots) || m.slots[index].Material == mat {
		return false
	}
	m.slots[index].Material = mat
	return true
}

// ResizeSlots changes the slot count to n (at least 1). Existing slots keep
// their data by position; new slots get default names and shadow mode.
// Submesh assignments beyond the new range are clamped to the last slot.
// Returns whether the count changed.
func (m *Model) ResizeSlots(n int) bool {
	if n < 1 {
		n = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if n == len(m.slots) {
		return false
	}
	slots := make([]MaterialSlot, n)
	copy(slots, m.slots)
	for i := len(m.slots); i < n; i++ {
		slots[i] = DefaultSlot(i)
	}
	m.slots = slots

	for _, lod := range m.lods {
		for _, s := range lod.Submeshes {
			s.MaterialSlotIndex = NormalizeSlot(s.MaterialSlotIndex, n)
		}
	}
	return true
}

// SetSubmeshSlot binds a submesh to a material slot. -1 is normalized to 0
// and out-of-range indices are clamped. Returns whether the binding changed.
func (m *Model) SetSubmeshSlot(lod, submesh, slot int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lod < 0 || lod >= len(m.lods) {
		return false, ErrLODRange
	}
	subs := m.lods[lod].Submeshes
	if submesh < 0 || submesh >= len(subs) {
		return false, ErrNoSubmesh
	}

	slot = NormalizeSlot(slot, len(m.slots))
	if subs[submesh].MaterialSlotIndex == slot {
		return false, nil
	}
	subs[submesh].MaterialSlotIndex = slot
	return true, nil
}
