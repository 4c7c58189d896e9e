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
	"testing"
	"time"

	"designcanvas/internal/design"
	"designcanvas/internal/geom"
)

func mustBlob(t *testing.T, s *Scene) []byte {
	t.Helper()
	b, err := s.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return b
}

func TestUndoOnInitialStateIsNoOp(t *testing.T) {
	_, h, _ := newTestScene(t)
	if h.Undo() || h.Redo() {
		t.Fatal("expected no-ops on fresh history")
	}
	if h.CanUndo() || h.CanRedo() {
		t.Fatal("nothing to undo or redo")
	}
}

func TestUndoRedoLinearity(t *testing.T) {
	s, h, _ := newTestScene(t)
	id := s.AddImage(imgRef("a", 100, 50), nil)
	s.SetTransform(id, geom.NewTransform(120, 130))
	s.SetFlip(id, AxisY)
	before := mustBlob(t, s)

	if !h.Undo() {
		t.Fatal("undo failed")
	}
	if bytes.Equal(mustBlob(t, s), before) {
		t.Fatal("undo did not change the scene")
	}
	if h.State() != Idle {
		t.Fatalf("state after undo = %v", h.State())
	}
	if !h.Redo() {
		t.Fatal("redo failed")
	}
	if got := mustBlob(t, s); !bytes.Equal(got, before) {
		t.Fatalf("redo mismatch:\n%s\n%s", got, before)
	}
}

func TestUndoRestoresIdentity(t *testing.T) {
	s, h, _ := newTestScene(t)
	id := s.AddImage(imgRef("a", 100, 50), nil)
	s.RemoveObject(id)
	h.Undo()
	if _, ok := s.Object(id); !ok {
		t.Fatalf("object %s not restored under the same id", id)
	}
	h.Undo()
	if s.Len() != 0 {
		t.Fatalf("len = %d", s.Len())
	}
}

func TestNewMutationInvalidatesRedo(t *testing.T) {
	s, h, _ := newTestScene(t)
	id := s.AddImage(imgRef("a", 100, 50), nil)
	s.SetTransform(id, geom.NewTransform(120, 130))
	h.Undo()
	if !h.CanRedo() {
		t.Fatal("expected redo after undo")
	}
	s.SetOpacity(id, -0.5)
	if h.RedoDepth() != 0 {
		t.Fatalf("redo depth = %d", h.RedoDepth())
	}
	before := mustBlob(t, s)
	if h.Redo() {
		t.Fatal("redo should be a no-op")
	}
	if !bytes.Equal(before, mustBlob(t, s)) {
		t.Fatal("no-op redo changed the scene")
	}
}

func TestNoOpMutationKeepsRedo(t *testing.T) {
	s, h, _ := newTestScene(t)
	tr := geom.NewTransform(150, 150)
	id := s.AddImage(imgRef("a", 100, 50), &tr)
	s.SetTransform(id, geom.NewTransform(120, 130))
	h.Undo()
	s.SetTransform(id, geom.NewTransform(150, 150))
	if h.RedoDepth() != 1 {
		t.Fatalf("identical snapshot must not clear redo, depth %d", h.RedoDepth())
	}
}

func TestHistoryCapsAtFifty(t *testing.T) {
	ctx, _ := testContext(geom.Size{W: 800, H: 600})
	s := NewScene(ctx, geom.R(0, 0, 800, 600))
	tr := geom.NewTransform(0, 0)
	id := s.AddImage(imgRef("a", 10, 10), &tr)
	h := NewHistory(s, DefaultHistoryOptions())

	for i := 1; i <= 60; i++ {
		s.SetTransform(id, geom.NewTransform(float64(i), 0))
	}
	if h.Depth() != 50 {
		t.Fatalf("depth = %d, want 50", h.Depth())
	}
	undos := 0
	for h.Undo() {
		undos++
	}
	if undos != 49 {
		t.Fatalf("undos = %d, want 49", undos)
	}
	o, _ := s.Object(id)
	if o.Transform.X != 11 {
		t.Fatalf("oldest reachable X = %v, want 11", o.Transform.X)
	}
}

func TestTextEditsAreDebounced(t *testing.T) {
	s, h, clock := newTestScene(t)
	id := s.AddText(design.TextContent{Text: "h"}, nil)
	depth := h.Depth()
	for _, txt := range []string{"he", "hel", "hell", "hello"} {
		clock.Advance(300 * time.Millisecond)
		s.SetText(id, design.TextContent{Text: txt})
	}
	if h.Depth() != depth+1 {
		t.Fatalf("depth = %d, want %d", h.Depth(), depth+1)
	}
	clock.Advance(2 * time.Second)
	s.SetText(id, design.TextContent{Text: "hello!"})
	if h.Depth() != depth+2 {
		t.Fatalf("after pause depth = %d, want %d", h.Depth(), depth+2)
	}
	h.Undo()
	o, _ := s.Object(id)
	if o.Text.Text != "hello" {
		t.Fatalf("undo landed on %q", o.Text.Text)
	}
	h.Undo()
	o, _ = s.Object(id)
	if o.Text.Text != "h" {
		t.Fatalf("second undo landed on %q", o.Text.Text)
	}
}

func TestCommittedEditSealsDebounceGroup(t *testing.T) {
	s, h, clock := newTestScene(t)
	id := s.AddText(design.TextContent{Text: "a"}, nil)
	s.SetText(id, design.TextContent{Text: "ab"})
	s.SetOpacity(id, -0.1)
	clock.Advance(100 * time.Millisecond)
	s.SetText(id, design.TextContent{Text: "abc"})
	// add, text, opacity, text
	if h.Depth() != 5 {
		t.Fatalf("depth = %d, want 5", h.Depth())
	}
}

func TestReplayDoesNotRecord(t *testing.T) {
	s, h, _ := newTestScene(t)
	id := s.AddImage(imgRef("a", 100, 50), nil)
	s.SetTransform(id, geom.NewTransform(120, 130))
	var sawReplay bool
	s.Context().Events.Subscribe(func(ev Event) {
		if ev.Kind == SceneReplaced {
			sawReplay = h.State() == Replaying
			if h.RecordIfChanged() {
				t.Error("recorded during replay")
			}
		}
	})
	h.Undo()
	if !sawReplay {
		t.Fatal("scene replaced outside replay state")
	}
	if h.Depth() != 2 || h.RedoDepth() != 1 {
		t.Fatalf("depth=%d redo=%d", h.Depth(), h.RedoDepth())
	}
}

func TestRecorderSeesCommits(t *testing.T) {
	s, h, _ := newTestScene(t)
	var n int
	h.SetRecorder(func(blob []byte, ts time.Time) {
		if len(blob) == 0 || ts.IsZero() {
			t.Error("empty snapshot")
		}
		n++
	})
	id := s.AddImage(imgRef("a", 10, 10), nil)
	s.PreviewTransform(id, geom.NewTransform(200, 200))
	s.SetTransform(id, geom.NewTransform(200, 200))
	h.Undo()
	if n != 2 {
		t.Fatalf("recorder calls = %d, want 2", n)
	}
}
