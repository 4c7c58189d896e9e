/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package canvas is the constrained design engine: the scene of placeable
// objects, the clamping of transforms into the active print zone, undo/redo
// history and the read-only layer projection.
//
// The engine is single-threaded. All mutations are synchronous and are
// expected to be driven from one event loop; the only shared piece is the
// event bus, which may be subscribed to from elsewhere.
package canvas

import (
	"log/slog"
	"time"

	"designcanvas/internal/design"
	"designcanvas/internal/geom"
	applog "designcanvas/internal/log"
	"designcanvas/internal/textlayout"
)

// TextMeasurer returns the untransformed box of a text object.
type TextMeasurer interface {
	MeasureText(tc design.TextContent) geom.Size
}

// EditorContext carries what the scene, constraint engine and history share
// for one editing session. There is no package-level mutable state.
type EditorContext struct {
	Canvas   geom.Size
	Log      *slog.Logger
	Events   *Bus
	Measurer TextMeasurer
	NewID    func() string
	Now      func() time.Time
}

// NewEditorContext returns a context for a canvas of the given size with the
// default logger, basic font metrics, typeid object ids and wall clock.
func NewEditorContext(canvas geom.Size) *EditorContext {
	return &EditorContext{
		Canvas:   canvas,
		Log:      applog.WithComponent("canvas"),
		Events:   NewBus(),
		Measurer: textlayout.NewMeasurer(textlayout.BasicProvider{}),
		NewID:    design.NewID,
		Now:      time.Now,
	}
}

// fill replaces nil members with defaults so callers may build partial contexts.
func (c *EditorContext) fill() {
	if c.Log == nil {
		c.Log = applog.WithComponent("canvas")
	}
	if c.Events == nil {
		c.Events = NewBus()
	}
	if c.Measurer == nil {
		c.Measurer = textlayout.NewMeasurer(textlayout.BasicProvider{})
	}
	if c.NewID == nil {
		c.NewID = design.NewID
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}
