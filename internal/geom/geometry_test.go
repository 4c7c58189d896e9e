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

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 25 || in.W != 90 || in.H != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
	if !r.ContainsRect(in, 0) {
		t.Fatalf("inset rect should be contained")
	}
	if r.ContainsRect(R(0, 20, 10, 10), 0) {
		t.Fatalf("rect left of r should not be contained")
	}
	if !r.ContainsRect(R(10-1e-12, 20, 10, 10), 1e-9) {
		t.Fatalf("eps should absorb tiny overshoot")
	}
}

func TestUnionIgnoresEmpty(t *testing.T) {
	a := R(0, 0, 10, 10)
	u := a.Union(Rect{})
	if u != a {
		t.Fatalf("union with empty changed rect: %+v", u)
	}
	u = a.Union(R(5, -5, 5, 10))
	if u.X != 0 || u.Y != -5 || u.W != 10 || u.H != 15 {
		t.Fatalf("unexpected union: %+v", u)
	}
}

func TestAffineBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 {
		t.Fatalf("unexpected transform result: %+v", p)
	}
	back := m.Invert().Apply(p)
	if !near(back.X, 1) || !near(back.Y, 1) {
		t.Fatalf("invert did not round-trip: %+v", back)
	}
}

func TestTransformBoundingBox(t *testing.T) {
	size := Size{W: 100, H: 50}
	tr := NewTransform(10, 20)
	tr.ScaleX, tr.ScaleY = 2, 2
	b := tr.BoundingBox(size)
	if b != R(10, 20, 200, 100) {
		t.Fatalf("unexpected scaled bbox: %+v", b)
	}

	tr = NewTransform(0, 0)
	tr.Rotation = 90
	b = tr.BoundingBox(size)
	// rotating around the origin swings the box into negative x
	if !near(b.X, -50) || !near(b.Y, 0) || !near(b.W, 50) || !near(b.H, 100) {
		t.Fatalf("unexpected rotated bbox: %+v", b)
	}

	tr = NewTransform(0, 0)
	tr.Rotation = 45
	b = tr.BoundingBox(Size{W: 10, H: 10})
	want := 10 * math.Sqrt2
	if !near(b.W, want) || !near(b.H, want) {
		t.Fatalf("45deg bbox should be %.4f square, got %+v", want, b)
	}
}

func TestFlipKeepsBoundingBox(t *testing.T) {
	size := Size{W: 30, H: 10}
	tr := NewTransform(5, 5)
	plain := tr.BoundingBox(size)
	tr.FlipX = true
	tr.FlipY = true
	if got := tr.BoundingBox(size); got != plain {
		t.Fatalf("flip moved bbox: %+v vs %+v", got, plain)
	}
	// the flipped matrix maps the local top-left to the box's bottom-right
	p := tr.Matrix(size).Apply(Pt{0, 0})
	if !near(p.X, 35) || !near(p.Y, 15) {
		t.Fatalf("unexpected flipped origin: %+v", p)
	}
}

func TestNormalizedAndRounding(t *testing.T) {
	tr := Transform{X: 1, Opacity: 3}.Normalized()
	if tr.ScaleX != 1 || tr.ScaleY != 1 || tr.Opacity != 1 {
		t.Fatalf("unexpected normalized transform: %+v", tr)
	}
	if tr := (Transform{X: 5}).Normalized(); tr.Opacity != 1 {
		t.Fatalf("zero opacity should read as opaque: %+v", tr)
	}
	if FloatRound(1.23456, 2) != 1.23 {
		t.Fatalf("float round fail")
	}
	if FloatRound(1.23456, -1) != 1.23456 {
		t.Fatalf("negative places should be no-op")
	}
	if Clamp01(-0.5) != 0 || Clamp01(0.25) != 0.25 {
		t.Fatalf("clamp01 wrong")
	}
}

func TestTransformFinite(t *testing.T) {
	if !NewTransform(1, 2).Finite() {
		t.Fatalf("plain transform reported non-finite")
	}
	for _, bad := range []func(*Transform){
		func(t *Transform) { t.X = math.NaN() },
		func(t *Transform) { t.Y = math.Inf(-1) },
		func(t *Transform) { t.ScaleY = math.Inf(1) },
		func(t *Transform) { t.Rotation = math.NaN() },
		func(t *Transform) { t.Opacity = math.NaN() },
	} {
		tr := NewTransform(0, 0)
		bad(&tr)
		if tr.Finite() {
			t.Fatalf("non-finite transform accepted: %+v", tr)
		}
	}
}
