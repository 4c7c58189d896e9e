/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package geom

import "math"

// Transform is the placement of one object on the canvas.
// X/Y is the object's local origin (its unrotated top-left corner),
// Rotation is in degrees around that origin. Flips mirror the object
// inside its own box and never move it.
type Transform struct {
	X, Y     float64
	ScaleX   float64
	ScaleY   float64
	Rotation float64
	FlipX    bool
	FlipY    bool
	Opacity  float64
}

// NewTransform returns an unscaled, unrotated, fully opaque transform at (x, y).
func NewTransform(x, y float64) Transform {
	return Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1, Opacity: 1}
}

// Matrix maps the object's local box (0,0,size.W,size.H) into canvas space.
func (t Transform) Matrix(size Size) Affine2D {
	m := Translate(t.X, t.Y).Mul(Rotate(Radians(t.Rotation))).Mul(Scale(t.ScaleX, t.ScaleY))
	if t.FlipX {
		m = m.Mul(Translate(size.W, 0)).Mul(Scale(-1, 1))
	}
	if t.FlipY {
		m = m.Mul(Translate(0, size.H)).Mul(Scale(1, -1))
	}
	return m
}

// BoundingBox is the axis-aligned box enclosing the transformed object.
// Rotated objects are approximated by the box around their rotated corners,
// so a rotated object can visually cross an edge its box respects.
func (t Transform) BoundingBox(size Size) Rect {
	return t.Matrix(size).Bounds(Rect{W: size.W, H: size.H})
}

// Finite reports whether every numeric field is a finite number.
func (t Transform) Finite() bool {
	for _, v := range [...]float64{t.X, t.Y, t.ScaleX, t.ScaleY, t.Rotation, t.Opacity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Normalized fills in neutral values for fields left at their zero value by
// callers that only care about position: zero scales and a zero opacity read
// as 1. Opacity is clamped to [0, 1].
func (t Transform) Normalized() Transform {
	if t.ScaleX == 0 {
		t.ScaleX = 1
	}
	if t.ScaleY == 0 {
		t.ScaleY = 1
	}
	if t.Opacity == 0 {
		t.Opacity = 1
	}
	t.Opacity = Clamp01(t.Opacity)
	return t
}
