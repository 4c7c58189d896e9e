/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package textlayout

// Text measurement for text layers. All measuring goes through a Provider so
// that tests run against the deterministic basicfont face while a deployment
// can load real OpenType families.

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"designcanvas/internal/design"
	"designcanvas/internal/geom"
)

// DefaultSize is used when a text layer has no font size.
const DefaultSize = 40

// basicNativePx is the pixel height basicfont.Face7x13 is drawn at.
const basicNativePx = 13

// FontSpec describes a requested font.
type FontSpec struct {
	Family string
	SizePx float64
	Weight int // 100..900
	Italic bool
}

// SpecFor maps text layer content to a font request.
func SpecFor(tc design.TextContent) FontSpec {
	spec := FontSpec{Family: tc.FontFamily, SizePx: tc.FontSize, Weight: 400, Italic: tc.Italic}
	if tc.Bold {
		spec.Weight = 700
	}
	if spec.SizePx <= 0 {
		spec.SizePx = DefaultSize
	}
	return spec
}

// Metrics provides font metrics in pixels for the resolved face.
// Scale converts the face's native pixels to the requested size; faces that
// are rasterized at the requested size report 1.
type Metrics struct {
	Ascent, Descent, LineGap float64
	Scale                    float64
}

// LineHeight is the distance between consecutive baselines in requested pixels.
func (m Metrics) LineHeight() float64 { return (m.Ascent + m.Descent + m.LineGap) * m.Scale }

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 scaled to the requested size.
// It is deterministic and needs no font files.
type BasicProvider struct{}

func (BasicProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	size := spec.SizePx
	if size <= 0 {
		size = DefaultSize
	}
	return f, Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
		Scale:   size / basicNativePx,
	}
}

func advance(d *font.Drawer, s string) float64 {
	return float64(d.MeasureString(s) >> 6) // fixed.Int26_6 to px
}

// MeasureBlock measures multi-line text (split on '\n') without wrapping and
// returns the box in requested pixels.
func MeasureBlock(provider Provider, text string, spec FontSpec) (w, h float64) {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	if met.Scale <= 0 {
		met.Scale = 1
	}
	d := &font.Drawer{Face: face}
	lines := strings.Split(text, "\n")
	for _, ln := range lines {
		if lw := advance(d, ln); lw > w {
			w = lw
		}
	}
	h = float64(len(lines)) * (met.Ascent + met.Descent + met.LineGap)
	return w * met.Scale, h * met.Scale
}

// Measurer sizes text layers.
type Measurer struct{ Provider Provider }

// NewMeasurer returns a Measurer over provider, falling back to BasicProvider.
func NewMeasurer(provider Provider) Measurer {
	if provider == nil {
		provider = BasicProvider{}
	}
	return Measurer{Provider: provider}
}

// MeasureText returns the untransformed box of a text layer.
func (m Measurer) MeasureText(tc design.TextContent) geom.Size {
	w, h := MeasureBlock(m.Provider, tc.Text, SpecFor(tc))
	return geom.Size{W: w, H: h}
}
