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
	"math"
	"math/rand"
	"testing"

	"designcanvas/internal/design"
	"designcanvas/internal/geom"
	"designcanvas/internal/textlayout"
)

func newTestScene(t *testing.T) (*Scene, *History, *fakeClock) {
	t.Helper()
	ctx, clock := testContext(geom.Size{W: 800, H: 600})
	s := NewScene(ctx, zone)
	h := NewHistory(s, DefaultHistoryOptions())
	return s, h, clock
}

func imgRef(key string, w, h float64) design.ImageRef {
	return design.ImageRef{Key: key, Width: w, Height: h}
}

func TestAddObjectRejectsInvalidContent(t *testing.T) {
	s, h, _ := newTestScene(t)
	cases := []struct {
		name string
		kind design.Kind
		c    Content
	}{
		{"zero size image", design.KindImage, Content{Image: &design.ImageRef{Key: "a"}}},
		{"image without key", design.KindImage, Content{Image: &design.ImageRef{Width: 10, Height: 10}}},
		{"blank text", design.KindText, Content{Text: &design.TextContent{Text: "  "}}},
		{"kind mismatch", design.KindText, Content{Image: &design.ImageRef{Key: "a", Width: 1, Height: 1}}},
		{"both set", design.KindImage, Content{Text: &design.TextContent{Text: "x"}, Image: &design.ImageRef{Key: "a", Width: 1, Height: 1}}},
		{"unknown kind", design.Kind("shape"), Content{}},
	}
	for _, tc := range cases {
		if id := s.AddObject(tc.kind, tc.c, nil); id != "" {
			t.Fatalf("%s: expected rejection, got %q", tc.name, id)
		}
	}
	if s.Len() != 0 || h.Depth() != 1 {
		t.Fatalf("scene or history changed: len=%d depth=%d", s.Len(), h.Depth())
	}
}

func TestOversizedImageFitsZoneCentered(t *testing.T) {
	s, _, _ := newTestScene(t)
	id := s.AddImage(imgRef("big.png", 1200, 900), nil)
	o, ok := s.Object(id)
	if !ok {
		t.Fatal("object missing")
	}
	if !near(o.Transform.ScaleX, 1.0/3) || !near(o.Transform.ScaleY, 1.0/3) {
		t.Fatalf("scale = %v,%v", o.Transform.ScaleX, o.Transform.ScaleY)
	}
	bb := o.BoundingBox()
	c, zc := bb.Center(), zone.Center()
	if !near(c.X, zc.X) || !near(c.Y, zc.Y) {
		t.Fatalf("not centered: %+v vs %+v", c, zc)
	}
	if !zone.ContainsRect(bb, 1e-9) {
		t.Fatalf("escapes zone: %+v", bb)
	}
}

func TestAddObjectWithDesiredTransformIsClamped(t *testing.T) {
	s, _, _ := newTestScene(t)
	tr := geom.NewTransform(0, 0)
	id := s.AddText(design.TextContent{Text: "hello"}, &tr)
	o, _ := s.Object(id)
	if o.Size != (geom.Size{W: 50, H: 20}) {
		t.Fatalf("size = %+v", o.Size)
	}
	if o.Transform.X != 100 || o.Transform.Y != 100 {
		t.Fatalf("not clamped to zone corner: %+v", o.Transform)
	}
}

func TestSetTransformDragPastBoundary(t *testing.T) {
	s, h, _ := newTestScene(t)
	tr := geom.NewTransform(200, 200)
	id := s.AddImage(imgRef("a", 100, 50), &tr)
	got, ok := s.SetTransform(id, geom.NewTransform(450, 210))
	if !ok {
		t.Fatal("unknown id")
	}
	bb := got.BoundingBox(geom.Size{W: 100, H: 50})
	if !near(bb.X+bb.W, 500) || got.Y != 210 {
		t.Fatalf("got %+v", got)
	}
	if h.Depth() != 3 {
		t.Fatalf("depth = %d, want 3", h.Depth())
	}
}

func TestSetTransformKeepsFlipAndOpacity(t *testing.T) {
	s, _, _ := newTestScene(t)
	id := s.AddImage(imgRef("a", 100, 50), nil)
	s.SetFlip(id, AxisX)
	s.SetOpacity(id, -0.25)
	got, _ := s.SetTransform(id, geom.NewTransform(150, 150))
	if !got.FlipX || !near(got.Opacity, 0.75) {
		t.Fatalf("lost flip/opacity: %+v", got)
	}
}

func TestMutationsOnUnknownIDAreNoOps(t *testing.T) {
	s, h, _ := newTestScene(t)
	s.AddImage(imgRef("a", 10, 10), nil)
	before, _ := s.Serialize()
	s.RemoveObject("nope")
	s.SetTransform("nope", geom.NewTransform(1, 1))
	s.PreviewTransform("nope", geom.NewTransform(1, 1))
	s.SetVisibility("nope", false)
	s.SetOpacity("nope", 0.1)
	s.SetFlip("nope", AxisY)
	s.SetText("nope", design.TextContent{Text: "x"})
	s.MoveLayer("nope", 1)
	after, _ := s.Serialize()
	if string(before) != string(after) || h.Depth() != 2 {
		t.Fatalf("unexpected change (depth %d)", h.Depth())
	}
}

func TestRemoveObjectIsIdempotent(t *testing.T) {
	s, h, _ := newTestScene(t)
	id := s.AddImage(imgRef("a", 10, 10), nil)
	s.RemoveObject(id)
	s.RemoveObject(id)
	if s.Len() != 0 || h.Depth() != 3 {
		t.Fatalf("len=%d depth=%d", s.Len(), h.Depth())
	}
}

func TestFlipDoesNotMoveBox(t *testing.T) {
	s, _, _ := newTestScene(t)
	tr := geom.NewTransform(150, 120)
	tr.Rotation = 30
	id := s.AddImage(imgRef("a", 80, 40), &tr)
	before, _ := s.Object(id)
	s.SetFlip(id, AxisX)
	s.SetFlip(id, AxisY)
	after, _ := s.Object(id)
	if b, a := before.BoundingBox(), after.BoundingBox(); !near(b.X, a.X) || !near(b.Y, a.Y) || !near(b.W, a.W) || !near(b.H, a.H) {
		t.Fatalf("box moved: %+v -> %+v", before.BoundingBox(), after.BoundingBox())
	}
	if !after.Transform.FlipX || !after.Transform.FlipY {
		t.Fatalf("flip not applied: %+v", after.Transform)
	}
}

func TestSetOpacityClamps(t *testing.T) {
	s, h, _ := newTestScene(t)
	id := s.AddImage(imgRef("a", 10, 10), nil)
	s.SetOpacity(id, 0.5)
	if h.Depth() != 2 {
		t.Fatalf("already opaque, nothing to record; depth %d", h.Depth())
	}
	s.SetOpacity(id, -2)
	o, _ := s.Object(id)
	if o.Transform.Opacity != 0 {
		t.Fatalf("opacity = %v", o.Transform.Opacity)
	}
}

func TestSetTextRemeasuresAndClamps(t *testing.T) {
	s, _, _ := newTestScene(t)
	tr := geom.NewTransform(440, 100)
	id := s.AddText(design.TextContent{Text: "hi"}, &tr)
	s.SetText(id, design.TextContent{Text: "a much longer line"})
	o, _ := s.Object(id)
	if o.Size.W != 180 {
		t.Fatalf("size = %+v", o.Size)
	}
	if !Contained(o.Size, o.Transform, zone) {
		t.Fatalf("escapes zone: %+v", o.BoundingBox())
	}
	s.SetText(id, design.TextContent{Text: ""})
	if o2, _ := s.Object(id); o2.Text.Text != "a much longer line" {
		t.Fatalf("blank text must be rejected, got %q", o2.Text.Text)
	}
	img := s.AddImage(imgRef("a", 10, 10), nil)
	s.SetText(img, design.TextContent{Text: "x"})
	if o3, _ := s.Object(img); o3.Text != nil {
		t.Fatal("SetText changed an image")
	}
}

func TestMoveLayerAndGetAllOrder(t *testing.T) {
	s, _, _ := newTestScene(t)
	a := s.AddImage(imgRef("a", 10, 10), nil)
	b := s.AddImage(imgRef("b", 10, 10), nil)
	c := s.AddImage(imgRef("c", 10, 10), nil)
	ids := func() []string {
		var out []string
		for _, o := range s.GetAll() {
			out = append(out, o.ID)
		}
		return out
	}
	if got := ids(); got[0] != c || got[2] != a {
		t.Fatalf("top-first order: %v", got)
	}
	s.MoveLayer(a, 5)
	if got := ids(); got[0] != a || got[1] != c || got[2] != b {
		t.Fatalf("after raise: %v", got)
	}
	s.MoveLayer(a, -1)
	if got := ids(); got[0] != c || got[1] != a {
		t.Fatalf("after lower: %v", got)
	}
}

func TestPreviewTransformDoesNotRecord(t *testing.T) {
	s, h, _ := newTestScene(t)
	id := s.AddImage(imgRef("a", 100, 50), nil)
	for x := 100.0; x < 600; x += 25 {
		got, _ := s.PreviewTransform(id, geom.NewTransform(x, 150))
		if !Contained(geom.Size{W: 100, H: 50}, got, zone) {
			t.Fatalf("preview escaped at x=%v: %+v", x, got)
		}
	}
	if h.Depth() != 2 {
		t.Fatalf("preview recorded history: depth %d", h.Depth())
	}
	s.SetTransform(id, geom.NewTransform(600, 150))
	if h.Depth() != 3 {
		t.Fatalf("commit not recorded: depth %d", h.Depth())
	}
}

func TestContainmentHoldsAcrossRandomEdits(t *testing.T) {
	s, _, _ := newTestScene(t)
	r := rand.New(rand.NewSource(42))
	var ids []string
	for i := 0; i < 200; i++ {
		size, tr := randomTransform(r)
		switch r.Intn(3) {
		case 0:
			if id := s.AddImage(imgRef("img", size.W, size.H), &tr); id != "" {
				ids = append(ids, id)
			}
		default:
			if len(ids) > 0 {
				s.SetTransform(ids[r.Intn(len(ids))], tr)
			}
		}
		for _, o := range s.GetAll() {
			if o.Visible && !Contained(o.Size, o.Transform, zone) {
				t.Fatalf("step %d: %s escapes: %+v", i, o.ID, o.BoundingBox())
			}
		}
	}
}

func TestEventsAreEmitted(t *testing.T) {
	s, _, _ := newTestScene(t)
	var kinds []EventKind
	cancel := s.Context().Events.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })
	id := s.AddImage(imgRef("a", 10, 10), nil)
	s.SetTransform(id, geom.NewTransform(120, 120))
	s.RemoveObject(id)
	cancel()
	s.AddImage(imgRef("b", 10, 10), nil)
	want := []EventKind{
		ObjectAdded, LayersChanged, HistoryChanged,
		TransformChanged, LayersChanged, HistoryChanged,
		ObjectRemoved, LayersChanged, HistoryChanged,
	}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event %d = %v, want %v (all %v)", i, kinds[i], want[i], kinds)
		}
	}
}

func TestNonFiniteInputIsNoOp(t *testing.T) {
	s, h, _ := newTestScene(t)
	id := s.AddImage(imgRef("a", 100, 50), nil)
	before := mustBlob(t, s)
	depth := h.Depth()

	nan := geom.NewTransform(math.NaN(), 10)
	if _, ok := s.SetTransform(id, nan); ok {
		t.Fatalf("SetTransform accepted NaN")
	}
	inf := geom.NewTransform(10, 10)
	inf.ScaleX = math.Inf(1)
	if _, ok := s.PreviewTransform(id, inf); ok {
		t.Fatalf("PreviewTransform accepted Inf")
	}
	s.SetOpacity(id, math.NaN())
	s.SetOpacity(id, math.Inf(-1))
	if got := s.AddImage(imgRef("b", 10, 10), &nan); got != "" || s.Len() != 1 {
		t.Fatalf("AddObject accepted NaN transform: %q", got)
	}

	if got := mustBlob(t, s); string(got) != string(before) {
		t.Fatalf("scene changed:\n%s\n%s", before, got)
	}
	if h.Depth() != depth {
		t.Fatalf("history moved: %d -> %d", depth, h.Depth())
	}
	s.SetTransform(id, geom.NewTransform(200, 200))
	if h.Depth() != depth+1 {
		t.Fatalf("history stopped recording after rejected input")
	}
}

func TestAddObjectLiteralTransformIsOpaque(t *testing.T) {
	s, _, _ := newTestScene(t)
	id := s.AddImage(imgRef("a", 100, 50), &geom.Transform{X: 150, Y: 150})
	o, _ := s.Object(id)
	if o.Transform.Opacity != 1 || o.Transform.ScaleX != 1 || o.Transform.ScaleY != 1 {
		t.Fatalf("literal transform not normalized: %+v", o.Transform)
	}
}

func TestPreviewAfterUndoDropsRedo(t *testing.T) {
	s, h, _ := newTestScene(t)
	id := s.AddImage(imgRef("a", 100, 50), nil)
	s.SetTransform(id, geom.NewTransform(120, 120))
	h.Undo()
	if !h.CanRedo() {
		t.Fatalf("expected redo after undo")
	}
	// a preview that changes nothing keeps redo
	o, _ := s.Object(id)
	s.PreviewTransform(id, o.Transform)
	if !h.CanRedo() {
		t.Fatalf("no-op preview dropped redo")
	}
	s.PreviewTransform(id, geom.NewTransform(300, 200))
	if h.CanRedo() {
		t.Fatalf("redo survived a diverging preview")
	}
	if h.Redo() {
		t.Fatalf("redo should be a no-op")
	}
	if o, _ := s.Object(id); o.Transform.X != 300 {
		t.Fatalf("previewed position lost: %+v", o.Transform)
	}
}

func TestSetTextRemeasuresOnStyleChange(t *testing.T) {
	ctx, _ := testContext(geom.Size{W: 2000, H: 2000})
	p, err := textlayout.NewOTProvider("")
	if err != nil {
		t.Fatalf("NewOTProvider: %v", err)
	}
	ctx.Measurer = textlayout.NewMeasurer(p)
	s := NewScene(ctx, geom.Rect{})
	tc := design.TextContent{Text: "Summer sale", FontSize: 40}
	id := s.AddText(tc, nil)
	o, _ := s.Object(id)
	plain := o.Size

	tc.Bold = true
	s.SetText(id, tc)
	o, _ = s.Object(id)
	if o.Size.W <= plain.W {
		t.Fatalf("bold did not re-measure wider: %v <= %v", o.Size.W, plain.W)
	}
	tc.Bold = false
	tc.FontFamily = "Go Mono"
	s.SetText(id, tc)
	o, _ = s.Object(id)
	if o.Size.W == plain.W {
		t.Fatalf("family change did not re-measure")
	}
}

func TestObjectAtHitsTopmostVisible(t *testing.T) {
	s, _, _ := newTestScene(t)
	a := s.AddImage(imgRef("a", 10, 10), nil)
	b := s.AddImage(imgRef("b", 10, 10), nil)
	c := zone.Center()
	if o, ok := s.ObjectAt(c); !ok || o.ID != b {
		t.Fatalf("expected top object %q, got %+v", b, o)
	}
	s.SetVisibility(b, false)
	if o, ok := s.ObjectAt(c); !ok || o.ID != a {
		t.Fatalf("hidden object must be skipped, got %+v", o)
	}
	if _, ok := s.ObjectAt(geom.Pt{X: 1, Y: 1}); ok {
		t.Fatal("hit outside every object")
	}
}

func TestObjectAtFollowsRotation(t *testing.T) {
	s, _, _ := newTestScene(t)
	tr := geom.NewTransform(250, 240)
	tr.Rotation = 90
	id := s.AddImage(imgRef("bar", 100, 20), &tr)
	if id == "" {
		t.Fatal("add rejected")
	}
	// the bar now hangs down from its origin instead of running right
	if o, ok := s.ObjectAt(geom.Pt{X: 240, Y: 300}); !ok || o.ID != id {
		t.Fatalf("rotated footprint not hit: %+v", o)
	}
	if _, ok := s.ObjectAt(geom.Pt{X: 300, Y: 250}); ok {
		t.Fatal("unrotated footprint still hit")
	}
}
