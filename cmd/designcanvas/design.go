/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"designcanvas/internal/canvas"
	"designcanvas/internal/codec"
	"designcanvas/internal/crash"
	"designcanvas/internal/design"
	"designcanvas/internal/export"
	applog "designcanvas/internal/log"
	"designcanvas/internal/script"
	"designcanvas/internal/storage"
)

var designCmd = &cobra.Command{
	Use:   "design",
	Short: "Inspect, edit and render design files",
}

// objectSummary is the --json shape of one object.
type objectSummary struct {
	ID      string  `json:"id"`
	Kind    string  `json:"kind"`
	Preview string  `json:"preview"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
	Opacity float64 `json:"opacity"`
	Visible bool    `json:"visible"`
}

// summarize lists objects top-first, like the layer panel.
func summarize(objs []*design.Object) []objectSummary {
	out := make([]objectSummary, 0, len(objs))
	for i := len(objs) - 1; i >= 0; i-- {
		o := objs[i]
		bb := o.BoundingBox()
		out = append(out, objectSummary{
			ID: o.ID, Kind: string(o.Kind), Preview: o.Preview(),
			X: bb.X, Y: bb.Y, W: bb.W, H: bb.H,
			Opacity: o.Transform.Opacity, Visible: o.Visible,
		})
	}
	return out
}

func printObjects(w io.Writer, objs []*design.Object) {
	for i, s := range summarize(objs) {
		vis := ""
		if !s.Visible {
			vis = " hidden"
		}
		fmt.Fprintf(w, "  %2d %-5s %-26q box=(%.1f,%.1f %.1fx%.1f) opacity=%.2f%s  %s\n",
			i+1, s.Kind, s.Preview, s.X, s.Y, s.W, s.H, s.Opacity, vis, s.ID)
	}
}

var inspectJSON bool

var designInspectCmd = &cobra.Command{
	Use:   "inspect <design-file>",
	Short: "List the objects of a design file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := storage.OpenDesignFile(args[0])
		if err != nil {
			return err
		}
		doc, err := codec.Decode(f.Design)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if inspectJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"product": f.ProductID, "view": f.View, "zone": f.Zone,
				"variant": f.Variant, "objects": summarize(doc.Objects),
			})
		}
		fmt.Fprintf(out, "%s: product=%s view=%s zone=%s variant=%s %s\n",
			f.Name, f.ProductID, f.View, f.Zone, f.Variant, f.Size)
		printObjects(out, doc.Objects)
		return nil
	},
}

// loadDesign selects the file's view, zone and variant and hydrates it.
func loadDesign(e *canvas.Editor, f *storage.DesignFile) error {
	if f.ProductID != "" && f.ProductID != e.Product().ID {
		return fmt.Errorf("design is for product %q, not %q", f.ProductID, e.Product().ID)
	}
	if f.View != "" {
		if err := e.SelectView(f.View); err != nil {
			return err
		}
	}
	if err := e.SelectZone(f.Zone); err != nil {
		return err
	}
	if f.Variant != "" {
		if err := e.SelectVariant(f.Variant, f.Size); err != nil {
			return err
		}
	}
	return e.Hydrate(f.Design)
}

type renderFlags struct {
	product string
	out     string
	maxPx   int
	guides  bool
	proof   string
	bundle  string
}

var rf renderFlags

var designRenderCmd = &cobra.Command{
	Use:   "render <design-file>",
	Short: "Render a thumbnail, print proof or bundle of a design file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if rf.out == "" && rf.proof == "" && rf.bundle == "" {
			return errors.New("nothing to do: pass --out, --proof or --bundle")
		}
		def, err := loadProduct(rf.product)
		if err != nil {
			return err
		}
		e, err := newEditor(def)
		if err != nil {
			return err
		}
		f, err := storage.OpenDesignFile(args[0])
		if err != nil {
			return err
		}
		if err := loadDesign(e, f); err != nil {
			return err
		}
		return writeOutputs(cmd.OutOrStdout(), e, rf)
	},
}

func writeOutputs(w io.Writer, e *canvas.Editor, o renderFlags) error {
	maxPx := o.maxPx
	if maxPx <= 0 {
		maxPx = cfg.Editor.ThumbnailMaxPx
	}
	r, err := newRenderer(export.RenderOptions{MaxPx: maxPx, Guides: o.guides})
	if err != nil {
		return err
	}
	objs := e.Scene().Objects()

	var thumb, proof []byte
	if o.out != "" || o.bundle != "" {
		img, err := r.Render(e.View(), objs)
		if err != nil {
			return err
		}
		if thumb, err = codec.EncodeThumbnail(img); err != nil {
			return err
		}
	}
	if o.proof != "" || o.bundle != "" {
		zone := ""
		if z, ok := e.Zone(); ok {
			zone = z.ID
		}
		var buf bytes.Buffer
		title := fmt.Sprintf("%s / %s", e.Product().Name, e.View().Name)
		if err := export.WriteProof(&buf, e.View(), objs, export.ProofOptions{Title: title, ZoneID: zone}); err != nil {
			return err
		}
		proof = buf.Bytes()
	}
	if o.out != "" {
		if err := os.WriteFile(o.out, thumb, 0o644); err != nil {
			return err
		}
		fmt.Fprintln(w, "thumbnail:", o.out)
	}
	if o.proof != "" {
		if err := os.WriteFile(o.proof, proof, 0o644); err != nil {
			return err
		}
		fmt.Fprintln(w, "proof:", o.proof)
	}
	if o.bundle != "" {
		blob, err := e.Scene().Serialize()
		if err != nil {
			return err
		}
		b := export.Bundle{ProductID: e.Product().ID, View: e.View().Name, Design: blob, Thumbnail: thumb, Proof: proof}
		if err := export.WriteBundle(o.bundle, b); err != nil {
			return err
		}
		fmt.Fprintln(w, "bundle:", o.bundle)
	}
	return nil
}

type runFlags struct {
	product   string
	in        string
	out       string
	name      string
	saveDraft bool
	session   string
	resume    bool
	render    string
}

var runf runFlags

var designRunCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Apply an edit script to a design",
	Long: `Apply an edit script to a new or existing design.

With --session every committed history entry is mirrored into the local
store; --resume continues from the newest mirrored entry of that session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		s, errs := script.Parse(string(src))
		if len(errs) > 0 {
			for _, pe := range errs {
				fmt.Fprintln(cmd.ErrOrStderr(), pe.Error())
			}
			return fmt.Errorf("%s: %d parse error(s)", args[0], len(errs))
		}
		def, err := loadProduct(runf.product)
		if err != nil {
			return err
		}
		e, err := newEditor(def)
		if err != nil {
			return err
		}
		sess := &crash.EditorSession{Root: dataDir(), Name: runf.name, Editor: e}
		defer crash.Recover(sess)

		ctx := cmd.Context()
		if runf.session != "" {
			ctx = applog.WithSession(ctx, runf.session)
		}
		l := applog.WithOperation(applog.WithComponent("cli"), "run")

		if runf.in != "" {
			f, err := storage.OpenDesignFile(runf.in)
			if err != nil {
				return err
			}
			if err := loadDesign(e, f); err != nil {
				return err
			}
		}
		if runf.session != "" {
			local, err := openLocal(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = local.Close() }()
			if runf.resume {
				blob, ts, err := local.LatestSnapshot(ctx, runf.session)
				if err != nil {
					return err
				}
				if blob != nil {
					if err := e.Hydrate(blob); err != nil {
						return fmt.Errorf("resume session %s: %w", runf.session, err)
					}
					l.InfoContext(ctx, "session resumed", slog.Time("from", ts))
				}
			}
			e.SetRecorder(local.HistoryMirror(runf.session, cfg.Editor.HistoryDepth))
		}

		lib := library()
		res, err := script.NewRunner(e, lib.Ref).Run(ctx, s)
		if err != nil {
			return err
		}
		l.InfoContext(ctx, "script applied", slog.Int("applied", res.Applied), slog.Int("rejected", res.Rejected))
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "applied %d operation(s), %d rejected; %d object(s), undo depth %d\n",
			res.Applied, res.Rejected, e.Scene().Len(), e.History().Depth()-1)
		printObjects(out, e.Scene().Objects())

		r, err := newRenderer(export.RenderOptions{MaxPx: cfg.Editor.ThumbnailMaxPx})
		if err != nil {
			return err
		}
		if runf.out != "" {
			d, err := e.Draft(runf.name, nil)
			if err != nil {
				return err
			}
			if err := storage.SaveDesignFile(runf.out, storage.FromDraft(d)); err != nil {
				return err
			}
			fmt.Fprintln(out, "saved:", runf.out)
		}
		if runf.saveDraft {
			store, closeFn, err := openDrafts(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()
			d, err := e.Save(ctx, store, runf.name, r)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "draft:", d.ID)
		}
		if runf.render != "" {
			return writeOutputs(out, e, renderFlags{out: runf.render})
		}
		return nil
	},
}

func init() {
	designInspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output JSON")

	designRenderCmd.Flags().StringVar(&rf.product, "product", "", "product definition file (required)")
	designRenderCmd.Flags().StringVar(&rf.out, "out", "", "write a PNG thumbnail")
	designRenderCmd.Flags().IntVar(&rf.maxPx, "max-px", 0, "longest thumbnail side (default from config)")
	designRenderCmd.Flags().BoolVar(&rf.guides, "guides", false, "draw zone outlines")
	designRenderCmd.Flags().StringVar(&rf.proof, "proof", "", "write a PDF print proof")
	designRenderCmd.Flags().StringVar(&rf.bundle, "bundle", "", "write a zip with design, thumbnail and proof")
	_ = designRenderCmd.MarkFlagRequired("product")

	designRunCmd.Flags().StringVar(&runf.product, "product", "", "product definition file (required)")
	designRunCmd.Flags().StringVar(&runf.in, "in", "", "start from this design file")
	designRunCmd.Flags().StringVar(&runf.out, "out", "", "save the result as a design file")
	designRunCmd.Flags().StringVar(&runf.name, "name", "untitled", "design name")
	designRunCmd.Flags().BoolVar(&runf.saveDraft, "save-draft", false, "save the result to the draft store")
	designRunCmd.Flags().StringVar(&runf.session, "session", "", "mirror history into the local store under this session id")
	designRunCmd.Flags().BoolVar(&runf.resume, "resume", false, "continue from the newest snapshot of --session")
	designRunCmd.Flags().StringVar(&runf.render, "render", "", "also write a PNG thumbnail")
	_ = designRunCmd.MarkFlagRequired("product")

	designCmd.AddCommand(designInspectCmd, designRenderCmd, designRunCmd)
	rootCmd.AddCommand(designCmd)
}
