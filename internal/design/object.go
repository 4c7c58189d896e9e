/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package design defines the placeable layers of a product design: text and
// image objects with their transform. Objects are a tagged variant; every
// switch over Kind must handle both cases.
package design

import (
	"strings"

	"go.jetify.com/typeid/v2"

	"designcanvas/internal/geom"
)

// Kind tags the content variant of an Object.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool { return k == KindText || k == KindImage }

// TextContent is the content of a text layer.
type TextContent struct {
	Text       string
	FontFamily string
	FontSize   float64
	Fill       string
	Bold       bool
	Italic     bool
}

// ImageRef is an opaque handle to pixel content owned outside the engine.
// Width/Height are the native pixel dimensions.
type ImageRef struct {
	Key    string
	Width  float64
	Height float64
}

// ImageContent is the content of an image layer.
type ImageContent struct {
	Ref ImageRef
}

// Object is one user-placed layer. Exactly one of Text or Image is set,
// matching Kind. Size is the untransformed box the Transform applies to.
type Object struct {
	ID        string
	Kind      Kind
	Text      *TextContent
	Image     *ImageContent
	Size      geom.Size
	Transform geom.Transform
	Visible   bool
}

// Selectable is always true for design objects; backgrounds and guides are
// not objects at all.
func (o *Object) Selectable() bool { return true }

// BoundingBox returns the canvas-space box of the object after its transform.
func (o *Object) BoundingBox() geom.Rect { return o.Transform.BoundingBox(o.Size) }

// Clone returns a deep copy so snapshots never alias live content.
func (o *Object) Clone() *Object {
	c := *o
	if o.Text != nil {
		t := *o.Text
		c.Text = &t
	}
	if o.Image != nil {
		im := *o.Image
		c.Image = &im
	}
	return &c
}

// Preview returns a short human label for layer lists.
func (o *Object) Preview() string {
	switch o.Kind {
	case KindText:
		if o.Text == nil {
			return ""
		}
		s := strings.Join(strings.Fields(o.Text.Text), " ")
		r := []rune(s)
		if len(r) > 24 {
			return string(r[:23]) + "…"
		}
		return s
	case KindImage:
		if o.Image == nil {
			return ""
		}
		return o.Image.Ref.Key
	}
	return ""
}

// Contains reports whether canvas point p falls on the object's transformed
// box (not just its axis-aligned bounding box).
func (o *Object) Contains(p geom.Pt) bool {
	if o.Size.IsEmpty() {
		return false
	}
	local := o.Transform.Matrix(o.Size).Invert().Apply(p)
	return geom.R(0, 0, o.Size.W, o.Size.H).Contains(local)
}

// Extent is the union of the bounding boxes of the visible objects. The
// second result is false when nothing is visible.
func Extent(objs []*Object) (geom.Rect, bool) {
	var r geom.Rect
	for _, o := range objs {
		if o != nil && o.Visible {
			r = r.Union(o.BoundingBox())
		}
	}
	return r, !r.IsEmpty()
}

// Valid reports whether the content matches the kind and has a usable size.
// Zero-size images and empty text are rejected.
func (o *Object) Valid() bool {
	switch o.Kind {
	case KindText:
		return o.Text != nil && o.Image == nil && strings.TrimSpace(o.Text.Text) != "" && !o.Size.IsEmpty()
	case KindImage:
		return o.Image != nil && o.Text == nil && o.Image.Ref.Key != "" && !o.Size.IsEmpty()
	}
	return false
}

const objectPrefix = "obj"

// NewID returns a fresh type-prefixed object id.
func NewID() string {
	id := typeid.MustGenerate(objectPrefix)
	return id.String()
}
