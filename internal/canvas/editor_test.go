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
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"

	"designcanvas/internal/codec"
	"designcanvas/internal/design"
	"designcanvas/internal/geom"
	"designcanvas/internal/product"
)

func testProduct() *product.Definition {
	return &product.Definition{
		ID:   "tee-classic",
		Name: "Classic Tee",
		Views: []product.View{
			{
				Name: "Front", Background: "mockups/tee-front.png", Width: 1000, Height: 800,
				Zones: []product.Zone{
					{ID: "chest", Label: "Chest", X: 0.3, Y: 0.2, Width: 0.4, Height: 0.4, MaxLayers: 2},
					{ID: "pocket", Label: "Pocket", X: 0.6, Y: 0.2, Width: 0.1, Height: 0.1},
				},
			},
			{
				Name: "Back", Background: "mockups/tee-back.png", Width: 1000, Height: 800,
				Zones: []product.Zone{{ID: "broken", X: 0.1, Y: 0.1, Width: 0, Height: 0.5}},
			},
		},
		Variants: []product.Variant{
			{ID: "black", Name: "Black", Sizes: []string{"S", "M", "L"}},
			{ID: "white", Name: "White"},
		},
	}
}

func newTestEditor(t *testing.T, opts Options) *Editor {
	t.Helper()
	ctx, _ := testContext(geom.Size{})
	e, err := NewEditor(ctx, testProduct(), opts)
	if err != nil {
		t.Fatalf("NewEditor: %v", err)
	}
	return e
}

type memStore struct {
	mu     sync.Mutex
	drafts map[string]codec.Draft
	fail   error
}

func newMemStore() *memStore { return &memStore{drafts: map[string]codec.Draft{}} }

func (m *memStore) SaveDraft(_ context.Context, d *codec.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.drafts[d.ID] = *d
	return nil
}

func (m *memStore) GetDraft(_ context.Context, id string) (*codec.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, codec.ErrDraftNotFound
	}
	return &d, nil
}

func (m *memStore) ListDrafts(_ context.Context, productID string) ([]codec.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []codec.Draft
	for _, d := range m.drafts {
		if productID == "" || d.ProductID == productID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) DeleteDraft(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

type solidThumb struct{}

func (solidThumb) Thumbnail(v product.View, _ []*design.Object) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, int(v.Width/10), int(v.Height/10)))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	return img, nil
}

func TestEditorStartsOnFirstViewAndZone(t *testing.T) {
	e := newTestEditor(t, Options{})
	if e.View().Name != "Front" {
		t.Fatalf("view = %q", e.View().Name)
	}
	z, ok := e.Zone()
	if !ok || z.ID != "chest" {
		t.Fatalf("zone = %+v %v", z, ok)
	}
	r, ok := e.Scene().Zone()
	// chest zone on a 1000x800 canvas, normalized by the longest side
	if !ok || r != geom.R(300, 200, 400, 400) {
		t.Fatalf("zone rect = %+v", r)
	}
	if v, _ := e.Variant(); v != "black" {
		t.Fatalf("variant = %q", v)
	}
}

func TestEditorSelectViewResetsScene(t *testing.T) {
	e := newTestEditor(t, Options{})
	e.AddImage(design.ImageRef{Key: "a", Width: 10, Height: 10}, nil)
	if err := e.SelectView("back"); err != nil {
		t.Fatalf("SelectView: %v", err)
	}
	if e.Scene().Len() != 0 || e.History().CanUndo() {
		t.Fatal("scene not reset")
	}
	if _, ok := e.Scene().Zone(); ok {
		t.Fatal("degenerate zone must disable clamping")
	}
	tr := geom.NewTransform(-50, 900)
	id := e.AddImage(design.ImageRef{Key: "a", Width: 10, Height: 10}, &tr)
	if o, _ := e.Scene().Object(id); o.Transform.X != -50 {
		t.Fatalf("clamped without a zone: %+v", o.Transform)
	}
	if err := e.SelectView("Sleeve"); !errors.Is(err, product.ErrUnknownView) {
		t.Fatalf("want ErrUnknownView, got %v", err)
	}
}

func TestEditorSelectZoneClampsExisting(t *testing.T) {
	e := newTestEditor(t, Options{})
	id := e.AddImage(design.ImageRef{Key: "a", Width: 200, Height: 200}, nil)
	if err := e.SelectZone("pocket"); err != nil {
		t.Fatalf("SelectZone: %v", err)
	}
	o, _ := e.Scene().Object(id)
	if !Contained(o.Size, o.Transform, geom.R(600, 200, 100, 100)) {
		t.Fatalf("not clamped into pocket: %+v", o.BoundingBox())
	}
	if e.History().CanUndo() {
		t.Fatal("zone switch should restart history")
	}
	if err := e.SelectZone("nope"); !errors.Is(err, product.ErrUnknownZone) {
		t.Fatalf("want ErrUnknownZone, got %v", err)
	}
	if err := e.SelectZone(""); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.Zone(); ok {
		t.Fatal("zone should be cleared")
	}
}

func TestEditorSelectVariant(t *testing.T) {
	e := newTestEditor(t, Options{})
	if err := e.SelectVariant("black", "M"); err != nil {
		t.Fatal(err)
	}
	if err := e.SelectVariant("black", "XXL"); !errors.Is(err, product.ErrInvalidProduct) {
		t.Fatalf("want ErrInvalidProduct, got %v", err)
	}
	if err := e.SelectVariant("pink", ""); err == nil {
		t.Fatal("unknown variant accepted")
	}
	if v, s := e.Variant(); v != "black" || s != "M" {
		t.Fatalf("variant = %s/%s", v, s)
	}
}

func TestEditorEnforceMaxLayers(t *testing.T) {
	free := newTestEditor(t, Options{})
	for i := 0; i < 3; i++ {
		if free.AddText(design.TextContent{Text: "x"}, nil) == "" {
			t.Fatal("capacity enforced without the option")
		}
	}
	strict := newTestEditor(t, Options{EnforceMaxLayers: true})
	strict.AddText(design.TextContent{Text: "x"}, nil)
	strict.AddText(design.TextContent{Text: "y"}, nil)
	if id := strict.AddText(design.TextContent{Text: "z"}, nil); id != "" {
		t.Fatal("third layer accepted in a two-layer zone")
	}
	if strict.Scene().Len() != 2 {
		t.Fatalf("len = %d", strict.Scene().Len())
	}
}

func TestEditorHydrateRoundTrip(t *testing.T) {
	e := newTestEditor(t, Options{})
	tr := geom.NewTransform(320, 240)
	tr.Rotation = 12.5
	e.AddImage(design.ImageRef{Key: "a", Width: 640, Height: 480}, nil)
	id := e.AddText(design.TextContent{Text: "Team", FontFamily: "Roboto", FontSize: 32, Fill: "#112233", Italic: true}, &tr)
	e.Scene().SetFlip(id, AxisX)
	e.Scene().SetVisibility(id, false)
	blob := mustBlob(t, e.Scene())

	other := newTestEditor(t, Options{})
	if err := other.Hydrate(blob); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if got := mustBlob(t, other.Scene()); !bytes.Equal(got, blob) {
		t.Fatalf("round trip differs:\n%s\n%s", got, blob)
	}
	if other.History().CanUndo() {
		t.Fatal("hydrate should be the initial history entry")
	}
}

func TestEditorHydrateCorrupt(t *testing.T) {
	e := newTestEditor(t, Options{})
	e.AddText(design.TextContent{Text: "keep?"}, nil)
	err := e.Hydrate([]byte(`{"version":1,"objects":[{"kind":"text"}]}`))
	if !errors.Is(err, codec.ErrCorruptDesignState) {
		t.Fatalf("want ErrCorruptDesignState, got %v", err)
	}
	if e.Scene().Len() != 0 {
		t.Fatal("corrupt blob should leave an empty scene")
	}
}

func TestEditorHydrateClampsIntoZone(t *testing.T) {
	blob, err := codec.Encode(codec.Document{Objects: []*design.Object{{
		ID: "obj_x", Kind: design.KindImage, Visible: true,
		Image:     &design.ImageContent{Ref: design.ImageRef{Key: "a", Width: 100, Height: 100}},
		Size:      geom.Size{W: 100, H: 100},
		Transform: geom.NewTransform(0, 0),
	}}})
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEditor(t, Options{})
	if err := e.Hydrate(blob); err != nil {
		t.Fatal(err)
	}
	o, _ := e.Scene().Object("obj_x")
	if o.Transform.X != 300 || o.Transform.Y != 200 {
		t.Fatalf("not clamped: %+v", o.Transform)
	}
}

func TestEditorSaveAndOpen(t *testing.T) {
	store := newMemStore()
	e := newTestEditor(t, Options{})
	if err := e.SelectZone("pocket"); err != nil {
		t.Fatal(err)
	}
	if err := e.SelectVariant("black", "L"); err != nil {
		t.Fatal(err)
	}
	e.AddText(design.TextContent{Text: "hi"}, nil)
	d, err := e.Save(context.Background(), store, "my tee", solidThumb{})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if d.ProductID != "tee-classic" || d.View != "Front" || d.Zone != "pocket" || d.Size != "L" {
		t.Fatalf("draft metadata: %+v", d)
	}
	if len(d.Thumbnail) == 0 {
		t.Fatal("no thumbnail")
	}
	again, err := e.Save(context.Background(), store, "my tee", nil)
	if err != nil || again.ID != d.ID {
		t.Fatalf("second save should update %s, got %v %v", d.ID, again, err)
	}

	other := newTestEditor(t, Options{})
	if err := other.Open(context.Background(), store, d.ID); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if z, _ := other.Zone(); z.ID != "pocket" {
		t.Fatalf("zone = %q", z.ID)
	}
	if !bytes.Equal(mustBlob(t, other.Scene()), d.Blob) {
		t.Fatal("opened scene differs from draft")
	}
	if other.DraftID() != d.ID {
		t.Fatalf("draft id = %q", other.DraftID())
	}
	if err := other.Open(context.Background(), store, "missing"); !errors.Is(err, codec.ErrDraftNotFound) {
		t.Fatalf("want ErrDraftNotFound, got %v", err)
	}
}

func TestEditorFailedSaveKeepsScene(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("disk full")
	e := newTestEditor(t, Options{})
	e.AddText(design.TextContent{Text: "hi"}, nil)
	before := mustBlob(t, e.Scene())
	if _, err := e.Save(context.Background(), store, "x", nil); err == nil {
		t.Fatal("expected error")
	}
	if !bytes.Equal(before, mustBlob(t, e.Scene())) || e.DraftID() != "" {
		t.Fatal("failed save touched the session")
	}
	if !e.History().CanUndo() {
		t.Fatal("history lost")
	}
}
