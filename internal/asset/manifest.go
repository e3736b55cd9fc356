package asset

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk description of a model asset: its LOD files,
// material slots and submesh bindings.
type Manifest struct {
	Name        string         `yaml:"name"`
	LODs        []ManifestLOD  `yaml:"lods"`
	Slots       []ManifestSlot `yaml:"slots,omitempty"`
	Assignments [][]int        `yaml:"assignments,omitempty"` // [lod][submesh] -> slot

	path string
}

// ManifestLOD points at one LOD's RSM file.
type ManifestLOD struct {
	File       string  `yaml:"file"`
	ScreenSize float32 `yaml:"screen_size"`
}

// ManifestSlot describes one material slot.
type ManifestSlot struct {
	Name       string     `yaml:"name"`
	Material   string     `yaml:"material,omitempty"`
	ShadowMode ShadowMode `yaml:"shadow_mode"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var mf Manifest
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if len(mf.LODs) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoLODFiles)
	}
	if mf.Name == "" {
		mf.Name = filepath.Base(path)
	}
	mf.path = path
	return &mf, nil
}

// Path returns the file the manifest was loaded from.
func (mf *Manifest) Path() string { return mf.path }

// LODPath resolves a LOD file relative to the manifest directory.
func (mf *Manifest) LODPath(lod int) string {
	file := mf.LODs[lod].File
	if filepath.IsAbs(file) || mf.path == "" {
		return file
	}
	return filepath.Join(filepath.Dir(mf.path), file)
}

// Files returns the manifest path and every LOD path.
func (mf *Manifest) Files() []string {
	files := make([]string, 0, len(mf.LODs)+1)
	if mf.path != "" {
		files = append(files, mf.path)
	}
	for i := range mf.LODs {
		files = append(files, mf.LODPath(i))
	}
	return files
}

// MaterialSlots converts the manifest slots to model slots.
func (mf *Manifest) MaterialSlots() []MaterialSlot {
	slots := make([]MaterialSlot, len(mf.Slots))
	for i, s := range mf.Slots {
		slots[i] = MaterialSlot{
			Index:      i,
			Name:       s.Name,
			Material:   MaterialRef(s.Material),
			ShadowMode: s.ShadowMode,
		}
		if slots[i].Name == "" {
			slots[i].Name = DefaultSlot(i).Name
		}
	}
	return slots
}

// Assignment returns the manifest slot binding of a submesh.
func (mf *Manifest) Assignment(lod, submesh int) (int, bool) {
	if lod >= len(mf.Assignments) || submesh >= len(mf.Assignments[lod]) {
		return 0, false
	}
	return mf.Assignments[lod][submesh], true
}

// Capture copies the model's current slots and bindings into the manifest.
func (mf *Manifest) Capture(m *Model) {
	slots := m.Slots()
	mf.Slots = make([]ManifestSlot, len(slots))
	for i, s := range slots {
		mf.Slots[i] = ManifestSlot{
			Name:       s.Name,
			Material:   string(s.Material),
			ShadowMode: s.ShadowMode,
		}
	}

	mf.Assignments = make([][]int, m.LODCount())
	for lod := range mf.Assignments {
		subs := m.Submeshes(lod)
		mf.Assignments[lod] = make([]int, len(subs))
		for i, s := range subs {
			mf.Assignments[lod][i] = s.MaterialSlotIndex
		}
	}
}

// Save writes the manifest back to the file it was loaded from.
func (mf *Manifest) Save() error {
	if mf.path == "" {
		return fmt.Errorf("manifest has no path")
	}
	return mf.SaveTo(mf.path)
}

// SaveTo writes the manifest to a specific path.
func (mf *Manifest) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(mf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
