// Package inspector is the model inspector session: it loads a model,
// owns the mesh cache, overlay, UV projector and edit coordinator, and
// exposes the operations the UI layer calls.
package inspector

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/rsm-inspector/internal/asset"
	"github.com/Faultbox/rsm-inspector/internal/config"
	"github.com/Faultbox/rsm-inspector/internal/editsync"
	"github.com/Faultbox/rsm-inspector/internal/engine/ui2d"
	"github.com/Faultbox/rsm-inspector/internal/meshcache"
	"github.com/Faultbox/rsm-inspector/internal/overlay"
	"github.com/Faultbox/rsm-inspector/internal/uvproj"
)

// Window errors.
var (
	ErrClosed  = errors.New("inspector window closed")
	ErrUnsaved = errors.New("closed with unsaved slot edits")
)

// Window is one open inspector. All methods except Close must be called
// from the UI goroutine.
type Window struct {
	cfg    *config.Config
	log    *zap.Logger
	loader *asset.Loader

	manifestPath string
	manifest     *asset.Manifest
	model        *asset.Model

	cache     *meshcache.Cache
	overlay   *overlay.Overlay
	primary   *overlay.EntryBuffer
	highlight *overlay.EntryBuffer
	coord     *editsync.Coordinator
	projector *uvproj.Projector
	viewport  *uvproj.Viewport
	params    uvproj.Params

	watcher *watcher

	appliedRev uuid.UUID
	failedRev  uuid.UUID
	redraw     atomic.Bool
	edited     bool
	closed     bool
}

// Option configures a Window.
type Option func(*options)

type options struct {
	controls editsync.Controls
	onLayout func()
}

// WithControls attaches the UI controls kept in sync with the overlay.
func WithControls(c editsync.Controls) Option {
	return func(o *options) { o.controls = c }
}

// WithLayout registers the callback run when the UV preview is shown or hidden.
func WithLayout(fn func()) Option {
	return func(o *options) { o.onLayout = fn }
}

// Open loads the model described by the manifest at manifestPath and
// builds the inspector around it. Geometry keeps streaming after Open
// returns.
func Open(manifestPath string, cfg *config.Config, log *zap.Logger, opts ...Option) (*Window, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	palette, err := paletteFromConfig(cfg.Preview.Colors)
	if err != nil {
		return nil, err
	}
	channel, err := uvproj.ParseChannel(cfg.Preview.Channel)
	if err != nil {
		return nil, err
	}

	loader := asset.NewLoader(log.Named("loader"))
	model, mf, err := loader.Open(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", manifestPath, err)
	}

	w := &Window{
		cfg:          cfg,
		log:          log,
		loader:       loader,
		manifestPath: manifestPath,
		manifest:     mf,
		model:        model,
		overlay:      overlay.New(),
		primary:      overlay.NewEntryBuffer(),
		highlight:    overlay.NewEntryBuffer(),
		params: uvproj.Params{
			Channel:   channel,
			LOD:       cfg.Preview.LOD,
			Submesh:   cfg.Preview.Submesh,
			Highlight: overlay.None,
			Isolate:   overlay.None,
		},
	}

	cacheOpts := []meshcache.Option{
		meshcache.WithLogger(log.Named("meshcache")),
		meshcache.WithOnReady(func() { w.redraw.Store(true) }),
	}
	if cfg.Cache.Workers > 0 {
		cacheOpts = append(cacheOpts, meshcache.WithWorkers(cfg.Cache.Workers))
	}
	w.cache = meshcache.New(cacheOpts...)

	w.projector = uvproj.New(w.cache, model,
		uvproj.WithPalette(palette),
		uvproj.WithLogger(log.Named("uvproj")))
	w.viewport = uvproj.NewViewport(cfg.Preview.Size, o.onLayout)
	w.viewport.SetVisible(channel != uvproj.ChannelNone)

	w.coord = editsync.New(model, w.overlay, o.controls,
		editsync.WithSinks(w.primary, w.highlight),
		editsync.WithHighlightMaterial(asset.MaterialRef(cfg.Preview.HighlightMaterial)),
		editsync.WithOnEdited(func() { w.edited = true }),
		editsync.WithLogger(log.Named("editsync")))

	if cfg.Watch.Enabled {
		w.watcher, err = newWatcher(mf.Files(), cfg.Watch.Debounce, log.Named("watch"))
		if err != nil {
			w.cache.Dispose()
			return nil, fmt.Errorf("watching %s: %w", manifestPath, err)
		}
	}

	w.syncLoad()
	log.Info("inspector opened",
		zap.String("manifest", manifestPath),
		zap.String("model", model.Name()),
		zap.Int("lods", len(mf.LODs)))
	return w, nil
}

func paletteFromConfig(c config.ColorsConfig) (uvproj.Palette, error) {
	p := uvproj.DefaultPalette()
	for _, f := range []struct {
		value string
		dst   *ui2d.Color
	}{
		{c.Background, &p.Background},
		{c.Wire, &p.Wire},
		{c.Highlight, &p.Highlight},
		{c.Text, &p.Text},
	} {
		if f.value == "" {
			continue
		}
		col, err := ui2d.ParseHex(f.value)
		if err != nil {
			return p, fmt.Errorf("preview colors: %w", err)
		}
		*f.dst = col
	}
	return p, nil
}

// syncLoad runs the panel load step once per loaded revision. Every
// operation that reads or edits the overlay calls it first, so the step
// never lands after a user edit.
func (w *Window) syncLoad() {
	rev := w.model.Revision()
	if err := w.model.LoadErr(); err != nil {
		if rev != w.failedRev {
			w.failedRev = rev
			w.log.Warn("model failed to load", zap.Stringer("revision", rev), zap.Error(err))
		}
		return
	}
	if !w.model.Loaded() {
		return
	}
	if rev == w.appliedRev {
		return
	}
	w.appliedRev = rev
	w.coord.OnLoad()
	w.redraw.Store(true)
}

// RequestIsolate isolates a material slot, or clears isolation with -1.
func (w *Window) RequestIsolate(slot int) bool {
	w.syncLoad()
	if !w.coord.SetIsolate(slot) {
		return false
	}
	w.redraw.Store(true)
	return true
}

// RequestHighlight highlights a material slot, or clears it with -1.
func (w *Window) RequestHighlight(slot int) bool {
	w.syncLoad()
	if !w.coord.SetHighlight(slot) {
		return false
	}
	w.redraw.Store(true)
	return true
}

// RequestMaterialSlotChange binds a submesh to a material slot.
func (w *Window) RequestMaterialSlotChange(lod, submesh, slot int) error {
	w.syncLoad()
	if err := w.coord.SetMaterialSlot(lod, submesh, slot); err != nil {
		return fmt.Errorf("LOD %d submesh %d: %w", lod, submesh, err)
	}
	w.redraw.Store(true)
	return nil
}

// ResizeSlots changes the number of material slots.
func (w *Window) ResizeSlots(n int) bool {
	w.syncLoad()
	if !w.coord.ResizeSlots(n) {
		return false
	}
	w.redraw.Store(true)
	return true
}

// SetUVPreview selects what the UV preview shows. ChannelNone hides it.
func (w *Window) SetUVPreview(channel uvproj.Channel, lod, submesh int) {
	w.params.Channel = channel
	w.params.LOD = lod
	w.params.Submesh = submesh
	w.viewport.SetVisible(channel != uvproj.ChannelNone)
	w.redraw.Store(true)
}

// UVParams returns the current preview selection with the overlay state
// filled in.
func (w *Window) UVParams() uvproj.Params {
	p := w.params
	p.Isolate = w.overlay.Isolate()
	p.Highlight = w.overlay.Highlight()
	return p
}

// RequestSlotMaterial assigns a material to a slot.
func (w *Window) RequestSlotMaterial(slot int, mat asset.MaterialRef) bool {
	w.syncLoad()
	if !w.coord.SetSlotMaterial(slot, mat) {
		return false
	}
	w.redraw.Store(true)
	return true
}

// DrawUV draws the UV preview onto s.
func (w *Window) DrawUV(s ui2d.Surface) uvproj.Result {
	w.syncLoad()
	w.redraw.Store(false)
	return w.projector.Draw(s, w.UVParams())
}

// Tick runs one UI frame: it applies pending file changes, finishes the
// load step of a freshly streamed model and redraws the preview when
// needed. Returns whether the preview was drawn.
func (w *Window) Tick(s ui2d.Surface) (uvproj.Result, bool) {
	if w.closed {
		return uvproj.Result{}, false
	}
	if w.watcher != nil {
		select {
		case <-w.watcher.Changes():
			if err := w.Reimport(); err != nil {
				w.log.Warn("reimport failed", zap.Error(err))
			}
		default:
		}
	}
	w.syncLoad()

	if !w.redraw.Load() && !w.projector.NeedsRedraw() {
		return uvproj.Result{}, false
	}
	return w.DrawUV(s), true
}

// Reimport reloads the model from disk under a new revision and drops all
// cached mesh data.
func (w *Window) Reimport() error {
	if w.closed {
		return ErrClosed
	}
	mf, err := w.loader.Reload(w.model, w.manifestPath)
	if err != nil {
		return fmt.Errorf("reimporting %s: %w", w.manifestPath, err)
	}
	w.manifest = mf
	w.cache.Invalidate()
	w.coord.SetModel(w.model)
	w.projector.SetModel(w.model)
	w.edited = false
	if w.watcher != nil {
		if err := w.watcher.setFiles(mf.Files()); err != nil {
			w.log.Warn("updating file watch", zap.Error(err))
		}
	}
	w.syncLoad()
	w.redraw.Store(true)
	w.log.Info("model reimported", zap.Stringer("revision", w.model.Revision()))
	return nil
}

// InvalidateCache drops cached mesh data; the next draw re-acquires it.
func (w *Window) InvalidateCache() {
	w.cache.Invalidate()
	w.redraw.Store(true)
}

// DisposeCache waits for any in-flight acquisition and releases the cache.
func (w *Window) DisposeCache() {
	w.cache.Dispose()
}

// Save writes slot edits back to the manifest.
func (w *Window) Save() error {
	w.manifest.Capture(w.model)
	if err := w.manifest.Save(); err != nil {
		return fmt.Errorf("saving %s: %w", w.manifestPath, err)
	}
	w.edited = false
	return nil
}

// Close stops watching, disposes the cache and unloads the model.
func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.coord.OnClean()

	var err error
	if w.watcher != nil {
		err = multierr.Append(err, w.watcher.Close())
	}
	w.cache.Dispose()
	w.model.Unload()
	if w.edited {
		err = multierr.Append(err, ErrUnsaved)
	}
	return err
}

// Model returns the inspected model.
func (w *Window) Model() *asset.Model { return w.model }

// Manifest returns the manifest of the current import.
func (w *Window) Manifest() *asset.Manifest { return w.manifest }

// Overlay returns the isolate/highlight state.
func (w *Window) Overlay() *overlay.Overlay { return w.overlay }

// Entries returns the primary render entries of one LOD.
func (w *Window) Entries(lod int) []overlay.Entry { return w.primary.Entries(lod) }

// HighlightEntries returns the highlight pass entries of one LOD, or nil.
func (w *Window) HighlightEntries(lod int) []overlay.Entry { return w.highlight.Entries(lod) }

// Cache returns the mesh cache.
func (w *Window) Cache() *meshcache.Cache { return w.cache }

// Viewport returns the UV preview viewport.
func (w *Window) Viewport() *uvproj.Viewport { return w.viewport }

// Coordinator returns the edit coordinator, for wiring control handlers.
func (w *Window) Coordinator() *editsync.Coordinator { return w.coord }

// Edited reports whether the document has unsaved slot edits.
func (w *Window) Edited() bool { return w.edited }
