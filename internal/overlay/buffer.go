package overlay

import "sync"

// EntryBuffer is an in-memory EntrySink. It stands in for the render proxy
// when running headless.
type EntryBuffer struct {
	mu     sync.Mutex
	lods   map[int][]Entry
	writes int
}

// NewEntryBuffer creates an empty buffer.
func NewEntryBuffer() *EntryBuffer {
	return &EntryBuffer{lods: make(map[int][]Entry)}
}

// SetEntries stores a copy of entries for lod.
func (b *EntryBuffer) SetEntries(lod int, entries []Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lods[lod] = append([]Entry(nil), entries...)
	b.writes++
}

// ClearEntries drops the entries of lod.
func (b *EntryBuffer) ClearEntries(lod int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.lods[lod]; ok {
		delete(b.lods, lod)
		b.writes++
	}
}

// Entries returns the entries of lod, or nil.
func (b *EntryBuffer) Entries(lod int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Entry(nil), b.lods[lod]...)
}

// Has reports whether lod currently has entries.
func (b *EntryBuffer) Has(lod int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.lods[lod]
	return ok
}

// Writes returns the number of SetEntries calls plus effective clears.
func (b *EntryBuffer) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}
