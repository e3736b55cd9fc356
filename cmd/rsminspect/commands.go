package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/rsm-inspector/internal/asset"
	"github.com/Faultbox/rsm-inspector/internal/engine/ui2d"
	"github.com/Faultbox/rsm-inspector/internal/inspector"
	"github.com/Faultbox/rsm-inspector/internal/logger"
	"github.com/Faultbox/rsm-inspector/internal/overlay"
	"github.com/Faultbox/rsm-inspector/internal/uvproj"
)

func cmdInfo(args []string) {
	s := newSession("info")
	path := s.parse(args, "info <model.yaml>")

	w := s.open(path, false)
	defer w.Close()

	m := w.Model()
	fmt.Printf("Model:    %s\n", m.Name())
	fmt.Printf("Revision: %s\n", m.Revision())
	fmt.Printf("LODs:     %d\n", m.LODCount())
	fmt.Println()

	for _, lod := range m.LODs() {
		fmt.Printf("LOD %d (screen size %.2f)\n", lod.Index, lod.ScreenSize)
		for _, sub := range m.Submeshes(lod.Index) {
			slot, _ := m.Slot(sub.MaterialSlotIndex)
			fmt.Printf("  submesh %-3d slot %-3d %-20s %6d tris %6d verts\n",
				sub.Index, sub.MaterialSlotIndex, slot.Name, sub.TriangleCount, sub.VertexCount)
		}
	}

	fmt.Println()
	fmt.Println("Material slots:")
	for _, slot := range m.Slots() {
		material := string(slot.Material)
		if material == "" {
			material = "(none)"
		}
		fmt.Printf("  %-3d %-20s %-30s shadows: %s\n", slot.Index, slot.Name, material, slot.ShadowMode)
	}
}

func cmdUV(args []string) {
	s := newSession("uv")
	output := s.fs.String("o", "", "Output PNG (default <model>_uv.png)")
	lod := s.fs.Int("lod", 0, "LOD index")
	submesh := s.fs.Int("submesh", -1, "Submesh index (-1 = all)")
	isolate := s.fs.Int("isolate", -1, "Isolate material slot")
	highlight := s.fs.Int("highlight", -1, "Highlight material slot")
	path := s.parse(args, "uv [-o out.png] [-lod N] [-submesh N] <model.yaml>")

	channel, err := uvproj.ParseChannel(s.cfg.Preview.Channel)
	if err != nil {
		fatal(err)
	}
	if channel == uvproj.ChannelNone {
		fatal(errors.New("uv needs a channel, got none"))
	}

	w := s.open(path, false)
	w.SetUVPreview(channel, *lod, *submesh)
	w.RequestIsolate(*isolate)
	w.RequestHighlight(*highlight)

	if *output == "" {
		*output = strings.TrimSuffix(path, ".yaml") + "_uv.png"
	}

	canvas, res, err := renderUV(w, s.cfg.Preview.Size)
	if err == nil {
		err = canvas.SavePNG(*output)
	}
	if err = multierr.Combine(err, w.Close()); err != nil {
		fatal(err)
	}
	fmt.Printf("Wrote %s: LOD %d, %d triangles drawn, %d culled\n", *output, res.LOD, res.Drawn, res.Culled)
}

// renderUV ticks the window until the preview is drawn from mesh data.
func renderUV(w *inspector.Window, size int) (*ui2d.Canvas, uvproj.Result, error) {
	deadline := time.Now().Add(loadTimeout)
	for time.Now().Before(deadline) {
		w.Cache().WaitForPending()
		canvas := ui2d.NewCanvas(size, size)
		res := w.DrawUV(canvas)
		switch res.Status {
		case uvproj.StatusDrawn:
			return canvas, res, nil
		case uvproj.StatusInactive:
			return nil, res, errors.New("UV preview is inactive")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil, uvproj.Result{}, errors.New("timed out waiting for mesh data")
}

func cmdIsolate(args []string) {
	s := newSession("isolate")
	slot := s.fs.Int("slot", -1, "Material slot to isolate (-1 = none)")
	highlight := s.fs.Int("highlight", -1, "Material slot to highlight (-1 = none)")
	path := s.parse(args, "isolate [-slot N] [-highlight N] <model.yaml>")

	w := s.open(path, false)
	defer w.Close()

	w.RequestIsolate(*slot)
	w.RequestHighlight(*highlight)
	fmt.Printf("Isolate: %d  Highlight: %d\n", w.Overlay().Isolate(), w.Overlay().Highlight())

	m := w.Model()
	for lod := 0; lod < m.LODCount(); lod++ {
		fmt.Printf("LOD %d\n", lod)
		subs := m.Submeshes(lod)
		hl := w.HighlightEntries(lod)
		for i, e := range w.Entries(lod) {
			if i >= len(subs) {
				break
			}
			mark := " "
			if e.Visible {
				mark = "x"
			}
			line := fmt.Sprintf("  [%s] submesh %-3d slot %d", mark, i, subs[i].MaterialSlotIndex)
			if i < len(hl) && hl[i].Visible {
				line += " highlight=" + string(hl[i].MaterialOverride)
			}
			fmt.Println(line)
		}
	}
}

// assignments collects -assign lod:submesh=slot values.
type assignments []assignment

type assignment struct {
	lod, submesh, slot int
}

func (a *assignments) String() string {
	parts := make([]string, len(*a))
	for i, v := range *a {
		parts[i] = fmt.Sprintf("%d:%d=%d", v.lod, v.submesh, v.slot)
	}
	return strings.Join(parts, ",")
}

func (a *assignments) Set(value string) error {
	target, slotStr, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("want lod:submesh=slot, got %q", value)
	}
	lodStr, subStr, ok := strings.Cut(target, ":")
	if !ok {
		return fmt.Errorf("want lod:submesh=slot, got %q", value)
	}
	var v assignment
	var err error
	if v.lod, err = strconv.Atoi(lodStr); err != nil {
		return fmt.Errorf("bad LOD in %q: %w", value, err)
	}
	if v.submesh, err = strconv.Atoi(subStr); err != nil {
		return fmt.Errorf("bad submesh in %q: %w", value, err)
	}
	if v.slot, err = strconv.Atoi(slotStr); err != nil {
		return fmt.Errorf("bad slot in %q: %w", value, err)
	}
	*a = append(*a, v)
	return nil
}

// materials collects -material slot=ref values.
type materials map[int]asset.MaterialRef

func (m materials) String() string {
	parts := make([]string, 0, len(m))
	for slot, ref := range m {
		parts = append(parts, fmt.Sprintf("%d=%s", slot, ref))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (m materials) Set(value string) error {
	slotStr, ref, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("want slot=material, got %q", value)
	}
	slot, err := strconv.Atoi(slotStr)
	if err != nil {
		return fmt.Errorf("bad slot in %q: %w", value, err)
	}
	m[slot] = asset.MaterialRef(ref)
	return nil
}

func cmdSlots(args []string) {
	s := newSession("slots")
	resize := s.fs.Int("resize", 0, "Set the number of material slots")
	save := s.fs.Bool("save", false, "Write changes back to the manifest")
	var assigns assignments
	s.fs.Var(&assigns, "assign", "Bind a submesh to a slot: lod:submesh=slot (repeatable)")
	mats := materials{}
	s.fs.Var(mats, "material", "Set a slot's material: slot=path (repeatable)")
	path := s.parse(args, "slots [-resize N] [-assign L:S=slot] [-material slot=path] [-save] <model.yaml>")

	w := s.open(path, false)

	if *resize > 0 && w.ResizeSlots(*resize) {
		fmt.Printf("Resized to %d slots\n", w.Model().SlotCount())
	}
	for _, a := range assigns {
		if err := w.RequestMaterialSlotChange(a.lod, a.submesh, a.slot); err != nil {
			w.Close()
			fatal(err)
		}
	}

	for slot, ref := range mats {
		if _, ok := w.Model().Slot(slot); !ok {
			w.Close()
			fatal(fmt.Errorf("no material slot %d", slot))
		}
		w.RequestSlotMaterial(slot, ref)
	}

	for _, slot := range w.Model().Slots() {
		fmt.Printf("  %-3d %-20s %-30s %s\n", slot.Index, slot.Name, slot.Material, slot.ShadowMode)
	}

	if *save && w.Edited() {
		if err := w.Save(); err != nil {
			w.Close()
			fatal(err)
		}
		fmt.Printf("Saved %s\n", path)
	}

	if err := w.Close(); err != nil {
		if errors.Is(err, inspector.ErrUnsaved) {
			fmt.Fprintln(os.Stderr, "Changes not saved (use -save)")
			return
		}
		fatal(err)
	}
}

func cmdWatch(args []string) {
	s := newSession("watch")
	output := s.fs.String("o", "", "Output PNG (default <model>_uv.png)")
	path := s.parse(args, "watch [-o out.png] <model.yaml>")
	if *output == "" {
		*output = strings.TrimSuffix(path, ".yaml") + "_uv.png"
	}

	w := s.open(path, true)
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := logger.Named("watch")
	log.Info("watching for changes", zap.String("manifest", path), zap.String("output", *output))

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		canvas := ui2d.NewCanvas(s.cfg.Preview.Size, s.cfg.Preview.Size)
		res, drawn := w.Tick(canvas)
		if !drawn || res.Status != uvproj.StatusDrawn {
			continue
		}
		if err := canvas.SavePNG(*output); err != nil {
			log.Warn("writing preview", zap.Error(err))
			continue
		}
		log.Info("preview updated",
			zap.Stringer("revision", w.Model().Revision()),
			zap.Int("drawn", res.Drawn),
			zap.Int("culled", res.Culled),
			zap.Int("isolate", w.Overlay().Isolate()),
			zap.Bool("highlighting", w.Overlay().Highlight() != overlay.None))
	}
}
