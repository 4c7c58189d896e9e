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

import (
	"image"
	"image/color"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// RenderBlock rasterizes text at the face's native size. The returned scale
// maps native pixels to the requested size, so the caller can stretch the
// image to the box MeasureBlock reports. Nil is returned for an empty block.
func RenderBlock(provider Provider, text string, spec FontSpec, col color.Color) (*image.RGBA, float64) {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	if met.Scale <= 0 {
		met.Scale = 1
	}
	d := &font.Drawer{Face: face}
	lines := strings.Split(text, "\n")
	var w float64
	for _, ln := range lines {
		w = math.Max(w, advance(d, ln))
	}
	lineH := met.Ascent + met.Descent + met.LineGap
	h := float64(len(lines)) * lineH
	if w <= 0 || h <= 0 {
		return nil, met.Scale
	}
	img := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(w)), int(math.Ceil(h))))
	d.Dst = img
	d.Src = image.NewUniform(col)
	for i, ln := range lines {
		d.Dot = fixed.P(0, int(float64(i)*lineH+met.Ascent))
		d.DrawString(ln)
	}
	return img, met.Scale
}
