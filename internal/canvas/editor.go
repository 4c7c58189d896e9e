/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"slices"

	"designcanvas/internal/codec"
	"designcanvas/internal/design"
	"designcanvas/internal/geom"
	"designcanvas/internal/product"
)

// Thumbnailer renders the current design over its view for a draft preview.
type Thumbnailer interface {
	Thumbnail(view product.View, objs []*design.Object) (image.Image, error)
}

// Options configures an Editor.
type Options struct {
	History HistoryOptions
	// EnforceMaxLayers refuses new objects once the active zone holds its
	// advertised maximum. The constraint engine itself never enforces it.
	EnforceMaxLayers bool
}

// Editor is one editing session over a product: it owns the live scene for
// the selected view and zone, its history, and draft save/load.
type Editor struct {
	ctx      *EditorContext
	def      *product.Definition
	opts     Options
	view     product.View
	zone     *product.Zone
	variant  string
	size     string
	draftID  string
	scene    *Scene
	history  *History
	recorder Recorder
}

// NewEditor starts a session on the first view of def and its first zone.
func NewEditor(ectx *EditorContext, def *product.Definition, opts Options) (*Editor, error) {
	if def == nil || len(def.Views) == 0 {
		return nil, fmt.Errorf("%w: no views", product.ErrInvalidProduct)
	}
	if ectx == nil {
		ectx = NewEditorContext(def.Views[0].Canvas())
	}
	ectx.fill()
	if opts.History.MaxDepth <= 0 && opts.History.Debounce <= 0 {
		opts.History = DefaultHistoryOptions()
	}
	e := &Editor{ctx: ectx, def: def, opts: opts}
	if len(def.Variants) > 0 {
		e.variant = def.Variants[0].ID
	}
	if err := e.SelectView(def.Views[0].Name); err != nil {
		return nil, err
	}
	return e, nil
}

// Context returns the session context.
func (e *Editor) Context() *EditorContext { return e.ctx }

// Product returns the product definition being edited.
func (e *Editor) Product() *product.Definition { return e.def }

// Scene returns the live scene.
func (e *Editor) Scene() *Scene { return e.scene }

// History returns the live history.
func (e *Editor) History() *History { return e.history }

// Layers returns the layer projection of the live scene.
func (e *Editor) Layers() Layers { return NewLayers(e.scene) }

// View returns the active view.
func (e *Editor) View() product.View { return e.view }

// Zone returns the active zone, if any.
func (e *Editor) Zone() (product.Zone, bool) {
	if e.zone == nil {
		return product.Zone{}, false
	}
	return *e.zone, true
}

// Variant returns the selected variant id and size.
func (e *Editor) Variant() (id, size string) { return e.variant, e.size }

// DraftID returns the id of the last saved or loaded draft.
func (e *Editor) DraftID() string { return e.draftID }

// SetRecorder mirrors committed snapshots to fn, now and after scene resets.
func (e *Editor) SetRecorder(fn Recorder) {
	e.recorder = fn
	if e.history != nil {
		e.history.SetRecorder(fn)
	}
}

// SelectView switches to the named view with a fresh, empty scene bound to
// the view's first zone.
func (e *Editor) SelectView(name string) error {
	v, err := e.def.View(name)
	if err != nil {
		return err
	}
	e.view = v
	e.ctx.Canvas = v.Canvas()
	e.zone = nil
	if len(v.Zones) > 0 {
		z := v.Zones[0]
		e.zone = &z
	}
	e.scene = NewScene(e.ctx, e.zoneRect())
	e.history = NewHistory(e.scene, e.opts.History)
	e.history.SetRecorder(e.recorder)
	e.ctx.Log.Info("view selected", slog.String("view", v.Name), slog.String("zone", e.zoneID()))
	e.ctx.Events.Publish(Event{Kind: SceneReplaced})
	return nil
}

// SelectZone rebinds clamping to the zone with id in the active view; an
// empty id disables clamping. Existing objects are clamped into the new zone
// and the history restarts from there.
func (e *Editor) SelectZone(id string) error {
	if id == "" {
		e.zone = nil
	} else {
		z, err := e.view.Zone(id)
		if err != nil {
			return err
		}
		e.zone = &z
	}
	e.scene.SetZone(e.zoneRect())
	e.history.Reset()
	e.ctx.Log.Info("zone selected", slog.String("view", e.view.Name), slog.String("zone", e.zoneID()))
	return nil
}

// SelectVariant records the chosen variant and size. The scene is untouched.
func (e *Editor) SelectVariant(id, size string) error {
	v, ok := e.def.Variant(id)
	if !ok {
		return fmt.Errorf("%w: unknown variant %q", product.ErrInvalidProduct, id)
	}
	if size != "" && len(v.Sizes) > 0 && !slices.Contains(v.Sizes, size) {
		return fmt.Errorf("%w: variant %q has no size %q", product.ErrInvalidProduct, id, size)
	}
	e.variant, e.size = id, size
	return nil
}

func (e *Editor) zoneID() string {
	if e.zone == nil {
		return ""
	}
	return e.zone.ID
}

func (e *Editor) zoneRect() geom.Rect {
	if e.zone == nil {
		return geom.Rect{}
	}
	r, ok := e.zone.Resolve(e.view.Canvas())
	if !ok {
		e.ctx.Log.Warn("degenerate zone, clamping disabled", slog.String("view", e.view.Name), slog.String("zone", e.zone.ID))
		return geom.Rect{}
	}
	return r
}

func (e *Editor) atCapacity() bool {
	if !e.opts.EnforceMaxLayers || e.zone == nil || e.zone.MaxLayers <= 0 {
		return false
	}
	if e.scene.Len() < e.zone.MaxLayers {
		return false
	}
	e.ctx.Log.Warn("zone is full", slog.String("zone", e.zone.ID), slog.Int("max_layers", e.zone.MaxLayers))
	return true
}

// AddText adds a text layer unless the zone is at capacity.
func (e *Editor) AddText(tc design.TextContent, desired *geom.Transform) string {
	if e.atCapacity() {
		return ""
	}
	return e.scene.AddText(tc, desired)
}

// AddImage adds an image layer unless the zone is at capacity.
func (e *Editor) AddImage(ref design.ImageRef, desired *geom.Transform) string {
	if e.atCapacity() {
		return ""
	}
	return e.scene.AddImage(ref, desired)
}

// Undo steps back one entry.
func (e *Editor) Undo() bool { return e.history.Undo() }

// Redo steps forward one entry.
func (e *Editor) Redo() bool { return e.history.Redo() }

// Hydrate replaces the scene with the contents of blob, clamped into the
// active zone, and restarts history. On a corrupt blob the scene is left
// empty and the error wraps codec.ErrCorruptDesignState.
func (e *Editor) Hydrate(blob []byte) error {
	doc, err := codec.DecodeWith(blob, e.ctx.NewID)
	if err != nil {
		e.ctx.Log.Warn("discarding corrupt design", slog.Any("err", err))
		e.scene.replace(nil, false)
		e.history.Reset()
		return err
	}
	e.scene.replace(doc.Objects, true)
	e.history.Reset()
	return nil
}

// Draft packages the current design with its product context. The
// thumbnail is rendered only when th is non-nil.
func (e *Editor) Draft(name string, th Thumbnailer) (*codec.Draft, error) {
	blob, err := e.scene.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize design: %w", err)
	}
	d := &codec.Draft{
		ID:        e.draftID,
		Name:      name,
		ProductID: e.def.ID,
		Variant:   e.variant,
		Size:      e.size,
		View:      e.view.Name,
		Zone:      e.zoneID(),
		Blob:      blob,
	}
	if th != nil {
		img, err := th.Thumbnail(e.view, e.scene.Objects())
		if err != nil {
			return nil, fmt.Errorf("render thumbnail: %w", err)
		}
		if d.Thumbnail, err = codec.EncodeThumbnail(img); err != nil {
			return nil, err
		}
	}
	d.Touch(e.ctx.Now())
	return d, nil
}

// Save stores the current design as a draft. A failed save leaves the live
// scene as it is and is reported to the caller.
func (e *Editor) Save(ctx context.Context, store codec.DraftStore, name string, th Thumbnailer) (*codec.Draft, error) {
	d, err := e.Draft(name, th)
	if err != nil {
		return nil, err
	}
	if err := store.SaveDraft(ctx, d); err != nil {
		e.ctx.Log.Error("save draft failed", slog.String("draft", d.ID), slog.Any("err", err))
		return nil, fmt.Errorf("save draft %s: %w", d.ID, err)
	}
	e.draftID = d.ID
	e.ctx.Log.Info("draft saved", slog.String("draft", d.ID), slog.Int("objects", e.scene.Len()))
	return d, nil
}

// Open loads a draft of this product: it selects the draft's view, zone and
// variant and hydrates its design.
func (e *Editor) Open(ctx context.Context, store codec.DraftStore, id string) error {
	d, err := store.GetDraft(ctx, id)
	if err != nil {
		return err
	}
	if d.ProductID != e.def.ID {
		return fmt.Errorf("draft %s belongs to product %q, not %q", id, d.ProductID, e.def.ID)
	}
	if d.View != "" {
		if err := e.SelectView(d.View); err != nil {
			return err
		}
	}
	if err := e.SelectZone(d.Zone); err != nil {
		return err
	}
	if d.Variant != "" {
		if err := e.SelectVariant(d.Variant, d.Size); err != nil {
			e.ctx.Log.Warn("draft variant no longer offered", slog.String("variant", d.Variant), slog.Any("err", err))
		}
	}
	e.draftID = d.ID
	return e.Hydrate(d.Blob)
}
