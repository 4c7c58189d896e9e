/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package script

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"designcanvas/internal/canvas"
	"designcanvas/internal/design"
	"designcanvas/internal/geom"
	applog "designcanvas/internal/log"
)

// ImageResolver turns an image key into a handle with its native size.
// *assets.Library's Ref method fits.
type ImageResolver func(key string) (design.ImageRef, error)

// Runner applies scripts to an editor. Objects created with as=<name> can be
// referred to by that name afterwards; any other reference is used as an
// object id, so unknown names reach the engine and are ignored there.
type Runner struct {
	Editor  *canvas.Editor
	Images  ImageResolver
	Aliases map[string]string
	log     *slog.Logger
}

func NewRunner(e *canvas.Editor, images ImageResolver) *Runner {
	return &Runner{Editor: e, Images: images, Aliases: map[string]string{}, log: applog.WithComponent("script")}
}

// Result summarizes a run.
type Result struct {
	Applied int
	// Rejected counts add operations the editor refused (invalid content,
	// zone at capacity) and picks that hit nothing.
	Rejected int
}

// Run executes ops in order and stops at the first error. Engine no-ops
// (unknown ids, nothing to undo) are not errors.
func (r *Runner) Run(ctx context.Context, s Script) (Result, error) {
	var res Result
	for _, op := range s.Ops {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ok, err := r.apply(op)
		if err != nil {
			return res, Error{Line: op.LineNo, Message: err.Error(), Err: err}
		}
		if !ok {
			res.Rejected++
			lctx := applog.WithView(ctx, r.Editor.View().Name)
			r.log.WarnContext(lctx, "operation rejected", slog.Int("line", op.LineNo), slog.String("op", string(op.Kind)))
			continue
		}
		res.Applied++
	}
	return res, nil
}

// Resolve maps an alias to its object id.
func (r *Runner) Resolve(ref string) string {
	if id, ok := r.Aliases[ref]; ok {
		return id
	}
	return ref
}

func (r *Runner) apply(op Op) (bool, error) {
	e := r.Editor
	sc := e.Scene()
	switch op.Kind {
	case OpView:
		return true, e.SelectView(op.Args[0])
	case OpZone:
		return true, e.SelectZone(op.Args[0])
	case OpVariant:
		size := ""
		if len(op.Args) > 1 {
			size = op.Args[1]
		}
		return true, e.SelectVariant(op.Args[0], size)
	case OpText:
		tc := design.TextContent{Text: op.Args[0]}
		tc.FontFamily, _ = op.Opt("font")
		tc.Fill, _ = op.Opt("fill")
		_, tc.Bold = op.Opt("bold")
		_, tc.Italic = op.Opt("italic")
		if v, ok := op.Opt("size"); ok {
			f, err := number(v)
			if err != nil {
				return false, fmt.Errorf("size: %w", err)
			}
			tc.FontSize = f
		}
		desired, err := placement(op)
		if err != nil {
			return false, err
		}
		return r.added(op, e.AddText(tc, desired)), nil
	case OpImage:
		if r.Images == nil {
			return false, fmt.Errorf("no image library configured")
		}
		ref, err := r.Images(op.Args[0])
		if err != nil {
			return false, err
		}
		desired, err := placement(op)
		if err != nil {
			return false, err
		}
		return r.added(op, e.AddImage(ref, desired)), nil
	case OpMove, OpScale, OpRotate:
		nums, err := floats(op.Args[1:])
		if err != nil {
			return false, err
		}
		id := r.Resolve(op.Args[0])
		o, found := sc.Object(id)
		if !found {
			return true, nil
		}
		t := o.Transform
		switch op.Kind {
		case OpMove:
			t.X, t.Y = nums[0], nums[1]
		case OpScale:
			t.ScaleX, t.ScaleY = nums[0], nums[0]
			if len(nums) > 1 {
				t.ScaleY = nums[1]
			}
		case OpRotate:
			t.Rotation = nums[0]
		}
		sc.SetTransform(id, t)
		return true, nil
	case OpFlip:
		switch op.Args[1] {
		case "x", "h", "horizontal":
			sc.SetFlip(r.Resolve(op.Args[0]), canvas.AxisX)
		case "y", "v", "vertical":
			sc.SetFlip(r.Resolve(op.Args[0]), canvas.AxisY)
		default:
			return false, fmt.Errorf("flip axis %q is not x or y", op.Args[1])
		}
		return true, nil
	case OpOpacity:
		d, err := number(op.Args[1])
		if err != nil {
			return false, fmt.Errorf("opacity: %w", err)
		}
		sc.SetOpacity(r.Resolve(op.Args[0]), d)
		return true, nil
	case OpHide, OpShow:
		sc.SetVisibility(r.Resolve(op.Args[0]), op.Kind == OpShow)
		return true, nil
	case OpEdit:
		id := r.Resolve(op.Args[0])
		o, found := sc.Object(id)
		if !found || o.Text == nil {
			return true, nil
		}
		tc := *o.Text
		tc.Text = op.Args[1]
		sc.SetText(id, tc)
		return true, nil
	case OpRaise:
		sc.MoveLayer(r.Resolve(op.Args[0]), +1)
		return true, nil
	case OpLower:
		sc.MoveLayer(r.Resolve(op.Args[0]), -1)
		return true, nil
	case OpDelete:
		sc.RemoveObject(r.Resolve(op.Args[0]))
		return true, nil
	case OpPick:
		nums, err := floats(op.Args)
		if err != nil {
			return false, err
		}
		o, found := sc.ObjectAt(geom.Pt{X: nums[0], Y: nums[1]})
		if !found {
			return false, nil
		}
		return r.added(op, o.ID), nil
	case OpUndo:
		e.Undo()
		return true, nil
	case OpRedo:
		e.Redo()
		return true, nil
	}
	return false, fmt.Errorf("unsupported operation %q", op.Kind)
}

func (r *Runner) added(op Op, id string) bool {
	if id == "" {
		return false
	}
	if name, ok := op.Opt("as"); ok && name != "" {
		r.Aliases[name] = id
	}
	return true
}

// placement builds the desired transform from x=/y=/rotate=/scale= options.
// Without x and y the editor picks the default placement.
func placement(op Op) (*geom.Transform, error) {
	xs, hasX := op.Opt("x")
	ys, hasY := op.Opt("y")
	if !hasX && !hasY {
		return nil, nil
	}
	nums, err := floats([]string{orZero(xs), orZero(ys)})
	if err != nil {
		return nil, err
	}
	t := geom.NewTransform(nums[0], nums[1])
	if v, ok := op.Opt("rotate"); ok {
		if t.Rotation, err = number(v); err != nil {
			return nil, fmt.Errorf("rotate: %w", err)
		}
	}
	if v, ok := op.Opt("scale"); ok {
		s, err := number(v)
		if err != nil {
			return nil, fmt.Errorf("scale: %w", err)
		}
		t.ScaleX, t.ScaleY = s, s
	}
	return &t, nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func floats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := number(a)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// number parses a finite float; NaN and infinities are rejected.
func number(a string) (float64, error) {
	f, err := strconv.ParseFloat(a, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("argument %q is not a finite number", a)
	}
	return f, nil
}
