/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"designcanvas/internal/design"
	"designcanvas/internal/geom"
	"designcanvas/internal/product"
)

// ProofOptions controls the PDF print proof.
// The page is the view canvas with 1 canvas unit = 1pt, plus a header band
// for the title. Every object is drawn as its transformed outline and its
// bounding box; the active zone is dashed.
type ProofOptions struct {
	Title      string
	ZoneID     string
	GuideColor color.RGBA
	BoxColor   color.RGBA
}

const proofHeader = 28.0

// WriteProof renders a one-page proof of objs on view to w.
func WriteProof(w io.Writer, view product.View, objs []*design.Object, opt ProofOptions) error {
	pdf, err := buildProof(view, objs, opt)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportProof writes the proof to outPath, creating parent directories.
func ExportProof(outPath string, view product.View, objs []*design.Object, opt ProofOptions) error {
	pdf, err := buildProof(view, objs, opt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func buildProof(view product.View, objs []*design.Object, opt ProofOptions) (*gofpdf.Fpdf, error) {
	canvas := view.Canvas()
	if canvas.IsEmpty() {
		return nil, fmt.Errorf("%w: view %q has no canvas size", product.ErrInvalidProduct, view.Name)
	}
	if opt.GuideColor == (color.RGBA{}) {
		opt.GuideColor = color.RGBA{R: 255, A: 255}
	}
	if opt.BoxColor == (color.RGBA{}) {
		opt.BoxColor = color.RGBA{B: 200, A: 255}
	}
	pageW, pageH := canvas.W, canvas.H+proofHeader
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	title := opt.Title
	if title == "" {
		title = view.Name
	}
	pdf.SetTitle(title+" proof", true)
	pdf.SetAuthor("Design Canvas", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: pageW, Ht: pageH})
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(6, 18, tr(title))

	oy := proofHeader
	// canvas bounds, inset so the stroke stays on the page
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	cb := geom.R(0, 0, canvas.W, canvas.H).Inset(0.25, 0.25)
	pdf.Rect(cb.X, cb.Y+oy, cb.W, cb.H, "D")

	// zones; the active one dashed
	setDrawRGBA(pdf, opt.GuideColor)
	pdf.SetLineWidth(0.75)
	for _, z := range view.Zones {
		zr, ok := z.Resolve(canvas)
		if !ok {
			continue
		}
		if z.ID == opt.ZoneID {
			pdf.SetDashPattern([]float64{4, 2}, 0)
		}
		pdf.Rect(zr.X, zr.Y+oy, zr.W, zr.H, "D")
		pdf.SetDashPattern([]float64{}, 0)
	}

	pdf.SetFont("Helvetica", "", 7)
	for i, o := range objs {
		if o == nil || o.Size.IsEmpty() {
			continue
		}
		m := geom.Translate(0, oy).Mul(o.Transform.Matrix(o.Size))
		corners := []geom.Pt{{X: 0, Y: 0}, {X: o.Size.W, Y: 0}, {X: o.Size.W, Y: o.Size.H}, {X: 0, Y: o.Size.H}}
		pts := make([]gofpdf.PointType, len(corners))
		for j, c := range corners {
			p := m.Apply(c)
			pts[j] = gofpdf.PointType{X: p.X, Y: p.Y}
		}
		setDrawRGBA(pdf, opt.BoxColor)
		pdf.SetLineWidth(0.5)
		if !o.Visible {
			pdf.SetDashPattern([]float64{1, 2}, 0)
		}
		pdf.Polygon(pts, "D")
		pdf.SetDashPattern([]float64{}, 0)

		bb := o.BoundingBox()
		pdf.SetDrawColor(160, 160, 160)
		pdf.SetLineWidth(0.25)
		pdf.Rect(bb.X, bb.Y+oy, bb.W, bb.H, "D")

		pdf.SetTextColor(60, 60, 60)
		pdf.Text(bb.X+2, bb.Y+oy+8, tr(fmt.Sprintf("%d %s %s", i+1, o.Kind, o.Preview())))
	}
	// print extent of the visible design
	if extent, ok := design.Extent(objs); ok {
		pdf.SetDrawColor(0, 150, 0)
		pdf.SetLineWidth(0.5)
		pdf.SetDashPattern([]float64{6, 3}, 0)
		pdf.Rect(extent.X, extent.Y+oy, extent.W, extent.H, "D")
		pdf.SetDashPattern([]float64{}, 0)
		pdf.SetTextColor(0, 120, 0)
		pdf.Text(canvas.W-120, 18, fmt.Sprintf("print area %g x %g", geom.FloatRound(extent.W, 1), geom.FloatRound(extent.H, 1)))
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	return pdf, nil
}

func setDrawRGBA(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}
