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
	"testing"

	"designcanvas/internal/design"
)

func TestLayersListTopFirst(t *testing.T) {
	s, _, _ := newTestScene(t)
	a := s.AddText(design.TextContent{Text: "Happy   birthday to the best dad ever"}, nil)
	b := s.AddImage(imgRef("uploads/dog.png", 50, 50), nil)
	rows := NewLayers(s).List()
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].ID != b || rows[0].Z != 1 || rows[0].Preview != "uploads/dog.png" {
		t.Fatalf("top row: %+v", rows[0])
	}
	if rows[1].ID != a || rows[1].Kind != design.KindText || rows[1].Preview != "Happy birthday to the b…" {
		t.Fatalf("bottom row: %+v", rows[1])
	}
}

func TestLayersDelegateToScene(t *testing.T) {
	s, h, _ := newTestScene(t)
	l := NewLayers(s)
	a := s.AddImage(imgRef("a", 10, 10), nil)
	b := s.AddImage(imgRef("b", 10, 10), nil)

	l.ToggleVisibility(a)
	if o, _ := s.Object(a); o.Visible {
		t.Fatal("toggle did not hide")
	}
	l.ToggleVisibility(a)
	if o, _ := s.Object(a); !o.Visible {
		t.Fatal("toggle did not show")
	}
	l.MoveUp(a)
	if rows := l.List(); rows[0].ID != a {
		t.Fatalf("move up: %+v", rows)
	}
	l.MoveDown(a)
	l.DeleteLayer(b)
	l.DeleteLayer(b)
	if rows := l.List(); len(rows) != 1 || rows[0].ID != a {
		t.Fatalf("after delete: %+v", rows)
	}
	// add a, add b, hide, show, up, down, delete
	if h.Depth() != 8 {
		t.Fatalf("depth = %d", h.Depth())
	}
}
