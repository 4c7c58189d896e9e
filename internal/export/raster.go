/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export renders designs outside the editor: raster thumbnails,
// a one-page PDF print proof and a zip bundle holding both with the design.
package export

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"designcanvas/internal/design"
	"designcanvas/internal/geom"
	applog "designcanvas/internal/log"
	"designcanvas/internal/product"
	"designcanvas/internal/textlayout"
)

// ImageSource resolves image keys to pixels. *assets.Library satisfies it.
type ImageSource interface {
	Image(key string) (image.Image, error)
}

// RenderOptions controls raster output.
// MaxPx caps the longest output side; 0 renders at canvas size. Guides draws
// the view's zone outlines. Paper fills the canvas before the background.
type RenderOptions struct {
	MaxPx      int
	Guides     bool
	GuideColor color.RGBA
	Paper      color.RGBA
}

// Renderer draws a view and its objects into an RGBA image.
type Renderer struct {
	Images   ImageSource
	Provider textlayout.Provider
	Opts     RenderOptions
	log      *slog.Logger
}

// NewRenderer returns a renderer with basicfont text and white paper.
// images may be nil; image objects then render as grey placeholders.
func NewRenderer(images ImageSource, opts RenderOptions) *Renderer {
	if opts.Paper == (color.RGBA{}) {
		opts.Paper = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	if opts.GuideColor == (color.RGBA{}) {
		opts.GuideColor = color.RGBA{R: 255, A: 255}
	}
	return &Renderer{Images: images, Provider: textlayout.BasicProvider{}, Opts: opts, log: applog.WithComponent("export")}
}

// OutputScale is the factor from canvas units to output pixels.
func (r *Renderer) OutputScale(canvas geom.Size) float64 {
	longest := math.Max(canvas.W, canvas.H)
	if r.Opts.MaxPx <= 0 || longest <= float64(r.Opts.MaxPx) {
		return 1
	}
	return float64(r.Opts.MaxPx) / longest
}

// Thumbnail renders the design for draft previews.
func (r *Renderer) Thumbnail(view product.View, objs []*design.Object) (image.Image, error) {
	return r.Render(view, objs)
}

// Render draws the background, every visible object bottom-first and, when
// enabled, the zone guides.
func (r *Renderer) Render(view product.View, objs []*design.Object) (*image.RGBA, error) {
	canvas := view.Canvas()
	if canvas.IsEmpty() {
		return nil, fmt.Errorf("%w: view %q has no canvas size", product.ErrInvalidProduct, view.Name)
	}
	s := r.OutputScale(canvas)
	w := max(1, int(math.Round(canvas.W*s)))
	h := max(1, int(math.Round(canvas.H*s)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(r.Opts.Paper), image.Point{}, draw.Src)

	if view.Background != "" && r.Images != nil {
		if bg, err := r.Images.Image(view.Background); err != nil {
			r.log.Warn("background unavailable", slog.String("key", view.Background), slog.Any("err", err))
		} else {
			draw.CatmullRom.Scale(dst, dst.Bounds(), bg, bg.Bounds(), draw.Over, nil)
		}
	}

	for _, o := range objs {
		if o == nil || !o.Visible || o.Transform.Opacity <= 0 || o.Size.IsEmpty() {
			continue
		}
		src, err := r.source(o)
		if err != nil {
			r.log.Warn("object skipped", slog.String("id", o.ID), slog.Any("err", err))
			continue
		}
		if src == nil {
			continue
		}
		b := src.Bounds()
		// source pixels -> object box -> canvas -> output
		m := geom.Scale(s, s).
			Mul(o.Transform.Matrix(o.Size)).
			Mul(geom.Scale(o.Size.W/float64(b.Dx()), o.Size.H/float64(b.Dy()))).
			Mul(geom.Translate(-float64(b.Min.X), -float64(b.Min.Y)))
		var opts *draw.Options
		if a := geom.Clamp01(o.Transform.Opacity); a < 1 {
			opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(math.Round(a * 255))})}
		}
		draw.BiLinear.Transform(dst, toAff3(m), src, b, draw.Over, opts)
	}

	if r.Opts.Guides {
		for _, z := range view.Zones {
			zr, ok := z.Resolve(canvas)
			if !ok {
				continue
			}
			lo, hi := zr.Min(), zr.Max()
			x0 := int(math.Round(lo.X * s))
			y0 := int(math.Round(lo.Y * s))
			x1 := int(math.Round(hi.X*s)) - 1
			y1 := int(math.Round(hi.Y*s)) - 1
			strokeRect(dst, x0, y0, x1, y1, r.Opts.GuideColor)
		}
	}
	return dst, nil
}

// source returns the untransformed pixels of an object.
func (r *Renderer) source(o *design.Object) (image.Image, error) {
	switch o.Kind {
	case design.KindText:
		if o.Text == nil {
			return nil, fmt.Errorf("text object without content")
		}
		img, _ := textlayout.RenderBlock(r.Provider, o.Text.Text, textlayout.SpecFor(*o.Text), parseColor(o.Text.Fill))
		if img == nil {
			return nil, nil
		}
		return img, nil
	case design.KindImage:
		if o.Image == nil {
			return nil, fmt.Errorf("image object without content")
		}
		if r.Images != nil {
			img, err := r.Images.Image(o.Image.Ref.Key)
			if err == nil {
				return img, nil
			}
			r.log.Debug("image placeholder", slog.String("key", o.Image.Ref.Key), slog.Any("err", err))
		}
		pw := max(1, int(math.Round(o.Image.Ref.Width)))
		ph := max(1, int(math.Round(o.Image.Ref.Height)))
		holder := image.NewRGBA(image.Rect(0, 0, pw, ph))
		draw.Draw(holder, holder.Bounds(), image.NewUniform(placeholderGrey), image.Point{}, draw.Src)
		return holder, nil
	}
	return nil, fmt.Errorf("unknown kind %q", o.Kind)
}

var placeholderGrey = color.RGBA{R: 200, G: 200, B: 200, A: 255}

// toAff3 converts to the row-major layout x/image/draw expects.
func toAff3(m geom.Affine2D) f64.Aff3 {
	return f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}
}

// parseColor reads #rgb or #rrggbb; anything else is black.
func parseColor(s string) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	black := color.RGBA{A: 255}
	if len(s) != 6 {
		return black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}
