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
	"designcanvas/internal/geom"
)

// fitEps absorbs rounding when comparing boxes in canvas units.
const fitEps = 1e-9

// Constrain corrects t so that the axis-aligned box of an object of the given
// size lies within zone. An empty zone disables clamping and t is returned
// unchanged.
//
// Oversized objects are first shrunk uniformly by the smaller of the two
// fit ratios, then shifted per axis; the min edge wins when both edges are
// out. Rotation, flips and opacity pass through. Rotated objects are
// contained by their rotated corners' box, so their visible shape may cross
// a zone edge that the box respects.
func Constrain(size geom.Size, t geom.Transform, zone geom.Rect) geom.Transform {
	if zone.IsEmpty() || size.IsEmpty() {
		return t
	}
	bb := t.BoundingBox(size)
	if bb.W > zone.W+fitEps || bb.H > zone.H+fitEps {
		ratio := min(zone.W/bb.W, zone.H/bb.H)
		t.ScaleX *= ratio
		t.ScaleY *= ratio
		bb = t.BoundingBox(size)
	}
	t.X += shift(bb.X, bb.X+bb.W, zone.X, zone.X+zone.W)
	t.Y += shift(bb.Y, bb.Y+bb.H, zone.Y, zone.Y+zone.H)
	return t
}

func shift(lo, hi, zlo, zhi float64) float64 {
	if lo < zlo-fitEps {
		return zlo - lo
	}
	if hi > zhi+fitEps {
		return zhi - hi
	}
	return 0
}

// Contained reports whether the object's box lies within zone, with rounding
// tolerance. An empty zone contains everything.
func Contained(size geom.Size, t geom.Transform, zone geom.Rect) bool {
	if zone.IsEmpty() {
		return true
	}
	return zone.ContainsRect(t.BoundingBox(size), 1e-6)
}

// Place returns the default transform for a new object: scaled down to fit
// region when needed and centered in it. Objects are never scaled up.
func Place(size geom.Size, region geom.Rect) geom.Transform {
	t := geom.NewTransform(0, 0)
	if size.IsEmpty() || region.IsEmpty() {
		return t
	}
	ratio := min(1, region.W/size.W, region.H/size.H)
	t.ScaleX, t.ScaleY = ratio, ratio
	c := region.Center()
	t.X = c.X - size.W*ratio/2
	t.Y = c.Y - size.H*ratio/2
	return t
}
