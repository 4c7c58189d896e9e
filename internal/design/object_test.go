/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package design

import (
	"strings"
	"testing"

	"designcanvas/internal/geom"
)

func TestObjectValid(t *testing.T) {
	cases := []struct {
		name string
		obj  Object
		want bool
	}{
		{"text", Object{Kind: KindText, Text: &TextContent{Text: "Hi"}, Size: geom.Size{W: 10, H: 5}}, true},
		{"blank text", Object{Kind: KindText, Text: &TextContent{Text: "  "}, Size: geom.Size{W: 10, H: 5}}, false},
		{"image", Object{Kind: KindImage, Image: &ImageContent{Ref: ImageRef{Key: "a.png", Width: 4, Height: 4}}, Size: geom.Size{W: 4, H: 4}}, true},
		{"zero image", Object{Kind: KindImage, Image: &ImageContent{Ref: ImageRef{Key: "a.png"}}}, false},
		{"mismatch", Object{Kind: KindImage, Text: &TextContent{Text: "x"}, Size: geom.Size{W: 1, H: 1}}, false},
		{"unknown kind", Object{Kind: "shape", Size: geom.Size{W: 1, H: 1}}, false},
	}
	for _, c := range cases {
		if got := c.obj.Valid(); got != c.want {
			t.Errorf("%s: Valid()=%v want %v", c.name, got, c.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	o := &Object{ID: "a", Kind: KindText, Text: &TextContent{Text: "one"}, Size: geom.Size{W: 1, H: 1}}
	c := o.Clone()
	c.Text.Text = "two"
	if o.Text.Text != "one" {
		t.Fatalf("clone shares text content")
	}
}

func TestPreviewTruncates(t *testing.T) {
	o := &Object{Kind: KindText, Text: &TextContent{Text: "a  very long\nline of text that keeps going"}}
	p := o.Preview()
	if len([]rune(p)) != 24 || !strings.HasSuffix(p, "…") {
		t.Fatalf("unexpected preview %q", p)
	}
	img := &Object{Kind: KindImage, Image: &ImageContent{Ref: ImageRef{Key: "logo.png"}}}
	if img.Preview() != "logo.png" {
		t.Fatalf("image preview should be the ref key")
	}
}

func TestNewIDUniqueAndPrefixed(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if !strings.HasPrefix(id, "obj_") {
			t.Fatalf("id without prefix: %s", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestContainsFollowsRotation(t *testing.T) {
	o := &Object{Kind: KindText, Visible: true, Size: geom.Size{W: 100, H: 10},
		Transform: geom.NewTransform(0, 0)}
	o.Transform.Rotation = 90
	// rotated about the origin, the box now runs down the negative x side
	if !o.Contains(geom.Pt{X: -5, Y: 50}) {
		t.Fatal("point on rotated box not contained")
	}
	if o.Contains(geom.Pt{X: 50, Y: 5}) {
		t.Fatal("point on unrotated footprint still contained")
	}
	o.Transform.Rotation = 0
	o.Transform.FlipX = true
	if !o.Contains(geom.Pt{X: 99, Y: 5}) {
		t.Fatal("flip must not move the footprint")
	}
}

func TestExtent(t *testing.T) {
	a := &Object{Visible: true, Size: geom.Size{W: 10, H: 10}, Transform: geom.NewTransform(0, 0)}
	b := &Object{Visible: true, Size: geom.Size{W: 10, H: 10}, Transform: geom.NewTransform(30, 20)}
	hidden := &Object{Visible: false, Size: geom.Size{W: 10, H: 10}, Transform: geom.NewTransform(500, 500)}
	r, ok := Extent([]*Object{a, nil, hidden, b})
	if !ok {
		t.Fatal("expected an extent")
	}
	if want := geom.R(0, 0, 40, 30); r != want {
		t.Fatalf("extent=%+v want %+v", r, want)
	}
	if _, ok := Extent([]*Object{hidden}); ok {
		t.Fatal("hidden objects must not count")
	}
}
