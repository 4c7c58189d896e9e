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
	"log/slog"
	"math"

	"designcanvas/internal/codec"
	"designcanvas/internal/design"
	"designcanvas/internal/geom"
)

// Axis selects the flip direction.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// Content is the kind-specific payload for AddObject. Exactly one member
// must be set, matching the kind.
type Content struct {
	Text  *design.TextContent
	Image *design.ImageRef
}

// Scene is the ordered collection of design objects, bottom to top, bound to
// an optional zone rectangle in canvas pixels.
type Scene struct {
	ctx     *EditorContext
	objects []*design.Object
	zone    geom.Rect
	history *History
}

// NewScene returns an empty scene. An empty zone means no clamping.
func NewScene(ctx *EditorContext, zone geom.Rect) *Scene {
	if ctx == nil {
		ctx = NewEditorContext(geom.Size{})
	}
	ctx.fill()
	return &Scene{ctx: ctx, zone: zone}
}

// Context returns the session context.
func (s *Scene) Context() *EditorContext { return s.ctx }

// Zone returns the active zone; ok is false when clamping is disabled.
func (s *Scene) Zone() (zone geom.Rect, ok bool) { return s.zone, !s.zone.IsEmpty() }

// SetZone binds a new zone and clamps every object into it. It does not
// record history.
func (s *Scene) SetZone(zone geom.Rect) {
	s.zone = zone
	for _, o := range s.objects {
		o.Transform = Constrain(o.Size, o.Transform, s.zone)
	}
	s.publish(Event{Kind: LayersChanged})
}

// Len returns the number of objects.
func (s *Scene) Len() int { return len(s.objects) }

// AddText adds a text layer; see AddObject.
func (s *Scene) AddText(tc design.TextContent, desired *geom.Transform) string {
	return s.AddObject(design.KindText, Content{Text: &tc}, desired)
}

// AddImage adds an image layer; see AddObject.
func (s *Scene) AddImage(ref design.ImageRef, desired *geom.Transform) string {
	return s.AddObject(design.KindImage, Content{Image: &ref}, desired)
}

// AddObject builds an object, clamps it into the active zone and appends it
// as the new top layer. A nil desired transform places the object centered
// in the zone (or canvas), shrunk to fit; zero scales and a zero opacity in
// desired read as 1. Invalid content or a non-finite transform adds nothing
// and returns "".
func (s *Scene) AddObject(kind design.Kind, content Content, desired *geom.Transform) string {
	if desired != nil && !desired.Finite() {
		s.ctx.Log.Warn("rejected non-finite transform", slog.String("kind", string(kind)))
		return ""
	}
	o, ok := s.build(kind, content)
	if !ok {
		s.ctx.Log.Warn("rejected object content", slog.String("kind", string(kind)))
		return ""
	}
	if desired != nil {
		o.Transform = desired.Normalized()
	} else {
		region, ok := s.Zone()
		if !ok {
			region = geom.Rect{W: s.ctx.Canvas.W, H: s.ctx.Canvas.H}
		}
		o.Transform = Place(o.Size, region)
	}
	o.Transform = Constrain(o.Size, o.Transform, s.zone)
	s.objects = append(s.objects, o)
	s.ctx.Log.Debug("object added", slog.String("id", o.ID), slog.String("kind", string(kind)))
	s.commit(Event{Kind: ObjectAdded, ObjectID: o.ID}, false)
	return o.ID
}

func (s *Scene) build(kind design.Kind, content Content) (*design.Object, bool) {
	o := &design.Object{ID: s.ctx.NewID(), Kind: kind, Visible: true}
	switch kind {
	case design.KindText:
		if content.Text == nil || content.Image != nil {
			return nil, false
		}
		tc := *content.Text
		o.Text = &tc
		o.Size = s.ctx.Measurer.MeasureText(tc)
	case design.KindImage:
		if content.Image == nil || content.Text != nil {
			return nil, false
		}
		ref := *content.Image
		o.Image = &design.ImageContent{Ref: ref}
		o.Size = geom.Size{W: ref.Width, H: ref.Height}
	default:
		return nil, false
	}
	if !o.Valid() || s.index(o.ID) >= 0 {
		return nil, false
	}
	return o, true
}

// RemoveObject deletes the object with id. Unknown ids are ignored.
func (s *Scene) RemoveObject(id string) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.objects = append(s.objects[:i], s.objects[i+1:]...)
	s.commit(Event{Kind: ObjectRemoved, ObjectID: id}, false)
}

// SetTransform applies the position, scale and rotation of t, clamps the
// result and records it. Flips and opacity have their own setters and are
// kept. It returns the stored transform; unknown ids and non-finite
// transforms change nothing and report false.
func (s *Scene) SetTransform(id string, t geom.Transform) (geom.Transform, bool) {
	o := s.find(id)
	if o == nil || !t.Finite() {
		return geom.Transform{}, false
	}
	o.Transform = Constrain(o.Size, merge(o.Transform, t), s.zone)
	s.commit(Event{Kind: TransformChanged, ObjectID: id}, false)
	return o.Transform, true
}

// PreviewTransform is SetTransform without a history entry, for continuous
// pointer updates. The following SetTransform commits the gesture. A preview
// that moves the object drops the redo stack, since the live scene no longer
// matches the entry Redo would build on.
func (s *Scene) PreviewTransform(id string, t geom.Transform) (geom.Transform, bool) {
	o := s.find(id)
	if o == nil || !t.Finite() {
		return geom.Transform{}, false
	}
	next := Constrain(o.Size, merge(o.Transform, t), s.zone)
	if next == o.Transform {
		return next, true
	}
	o.Transform = next
	if s.history != nil {
		s.history.DiscardRedo()
	}
	s.publish(Event{Kind: TransformChanged, ObjectID: id, Preview: true})
	return o.Transform, true
}

func merge(cur, t geom.Transform) geom.Transform {
	t = t.Normalized()
	cur.X, cur.Y = t.X, t.Y
	cur.ScaleX, cur.ScaleY = t.ScaleX, t.ScaleY
	cur.Rotation = t.Rotation
	return cur
}

// SetVisibility shows or hides an object.
func (s *Scene) SetVisibility(id string, visible bool) {
	o := s.find(id)
	if o == nil || o.Visible == visible {
		return
	}
	o.Visible = visible
	o.Transform = Constrain(o.Size, o.Transform, s.zone)
	s.commit(Event{Kind: PropertyChanged, ObjectID: id}, false)
}

// SetOpacity changes opacity by delta, clamped to [0, 1]. A non-finite
// delta is ignored.
func (s *Scene) SetOpacity(id string, delta float64) {
	o := s.find(id)
	if o == nil || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return
	}
	next := geom.Clamp01(o.Transform.Opacity + delta)
	if next == o.Transform.Opacity {
		return
	}
	o.Transform.Opacity = next
	s.commit(Event{Kind: PropertyChanged, ObjectID: id}, false)
}

// SetFlip toggles mirroring along axis.
func (s *Scene) SetFlip(id string, axis Axis) {
	o := s.find(id)
	if o == nil {
		return
	}
	switch axis {
	case AxisX:
		o.Transform.FlipX = !o.Transform.FlipX
	case AxisY:
		o.Transform.FlipY = !o.Transform.FlipY
	default:
		return
	}
	o.Transform = Constrain(o.Size, o.Transform, s.zone)
	s.commit(Event{Kind: TransformChanged, ObjectID: id}, false)
}

// SetText replaces the content of a text object, re-measures and re-clamps
// it. Consecutive edits within the debounce window form one undo step.
func (s *Scene) SetText(id string, tc design.TextContent) {
	o := s.find(id)
	if o == nil || o.Kind != design.KindText || *o.Text == tc {
		return
	}
	next := o.Clone()
	next.Text = &tc
	next.Size = s.ctx.Measurer.MeasureText(tc)
	if !next.Valid() {
		return
	}
	o.Text = next.Text
	o.Size = next.Size
	o.Transform = Constrain(o.Size, o.Transform, s.zone)
	s.commit(Event{Kind: PropertyChanged, ObjectID: id}, true)
}

// MoveLayer moves an object delta steps towards the top (positive) or the
// bottom (negative), stopping at the ends.
func (s *Scene) MoveLayer(id string, delta int) {
	i := s.index(id)
	if i < 0 {
		return
	}
	j := min(max(i+delta, 0), len(s.objects)-1)
	if j == i {
		return
	}
	o := s.objects[i]
	if j < i {
		copy(s.objects[j+1:i+1], s.objects[j:i])
	} else {
		copy(s.objects[i:j], s.objects[i+1:j+1])
	}
	s.objects[j] = o
	s.commit(Event{Kind: LayersChanged, ObjectID: id}, false)
}

// Object returns a copy of the object with id.
func (s *Scene) Object(id string) (*design.Object, bool) {
	o := s.find(id)
	if o == nil {
		return nil, false
	}
	return o.Clone(), true
}

// ObjectAt returns a copy of the topmost visible object under canvas point p.
func (s *Scene) ObjectAt(p geom.Pt) (*design.Object, bool) {
	for i := len(s.objects) - 1; i >= 0; i-- {
		if o := s.objects[i]; o.Visible && o.Contains(p) {
			return o.Clone(), true
		}
	}
	return nil, false
}

// GetAll returns copies of all objects, topmost first.
func (s *Scene) GetAll() []*design.Object {
	out := make([]*design.Object, 0, len(s.objects))
	for i := len(s.objects) - 1; i >= 0; i-- {
		out = append(out, s.objects[i].Clone())
	}
	return out
}

// Objects returns copies of all objects in paint order, bottom first.
func (s *Scene) Objects() []*design.Object {
	out := make([]*design.Object, len(s.objects))
	for i, o := range s.objects {
		out[i] = o.Clone()
	}
	return out
}

// Document returns the codec view of the scene.
func (s *Scene) Document() codec.Document {
	return codec.Document{Canvas: s.ctx.Canvas, Objects: s.objects}
}

// Serialize encodes the scene as a design blob.
func (s *Scene) Serialize() ([]byte, error) { return codec.Encode(s.Document()) }

// replace swaps in objs wholesale. With clamp set, each object is clamped
// into the zone and ids that collide are renewed.
func (s *Scene) replace(objs []*design.Object, clamp bool) {
	seen := make(map[string]bool, len(objs))
	s.objects = make([]*design.Object, 0, len(objs))
	for _, o := range objs {
		o = o.Clone()
		if seen[o.ID] {
			o.ID = s.ctx.NewID()
		}
		seen[o.ID] = true
		if clamp {
			o.Transform = Constrain(o.Size, o.Transform, s.zone)
		}
		s.objects = append(s.objects, o)
	}
	s.publish(Event{Kind: SceneReplaced})
	s.publish(Event{Kind: LayersChanged})
}

func (s *Scene) commit(ev Event, debounced bool) {
	s.publish(ev)
	if ev.Kind != LayersChanged {
		s.publish(Event{Kind: LayersChanged, ObjectID: ev.ObjectID})
	}
	if s.history == nil {
		return
	}
	if debounced {
		s.history.RecordDebounced()
	} else {
		s.history.RecordIfChanged()
	}
}

func (s *Scene) publish(ev Event) { s.ctx.Events.Publish(ev) }

func (s *Scene) index(id string) int {
	for i, o := range s.objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (s *Scene) find(id string) *design.Object {
	if i := s.index(id); i >= 0 {
		return s.objects[i]
	}
	return nil
}
