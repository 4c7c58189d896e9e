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

import "designcanvas/internal/design"

// Layer is the display row for one object.
type Layer struct {
	ID      string
	Kind    design.Kind
	Preview string
	Visible bool
	Opacity float64
	// Z is the paint index, 0 at the bottom.
	Z int
}

// Layers is a read-only, topmost-first projection of a scene. It holds no
// state of its own; mutations go back to the scene.
type Layers struct{ scene *Scene }

// NewLayers returns the projection of scene.
func NewLayers(scene *Scene) Layers { return Layers{scene: scene} }

// List returns one row per object, topmost first.
func (l Layers) List() []Layer {
	objs := l.scene.objects
	out := make([]Layer, 0, len(objs))
	for i := len(objs) - 1; i >= 0; i-- {
		o := objs[i]
		out = append(out, Layer{
			ID:      o.ID,
			Kind:    o.Kind,
			Preview: o.Preview(),
			Visible: o.Visible,
			Opacity: o.Transform.Opacity,
			Z:       i,
		})
	}
	return out
}

// ToggleVisibility flips the visibility of the layer with id.
func (l Layers) ToggleVisibility(id string) {
	if o := l.scene.find(id); o != nil {
		l.scene.SetVisibility(id, !o.Visible)
	}
}

// DeleteLayer removes the layer with id.
func (l Layers) DeleteLayer(id string) { l.scene.RemoveObject(id) }

// MoveUp raises the layer one step.
func (l Layers) MoveUp(id string) { l.scene.MoveLayer(id, +1) }

// MoveDown lowers the layer one step.
func (l Layers) MoveDown(id string) { l.scene.MoveLayer(id, -1) }
