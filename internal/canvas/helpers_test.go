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
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"
	"unicode/utf8"

	"designcanvas/internal/design"
	"designcanvas/internal/geom"
)

// runeMeasurer sizes text at 10px per rune and 20px per line.
type runeMeasurer struct{}

func (runeMeasurer) MeasureText(tc design.TextContent) geom.Size {
	return geom.Size{W: float64(10 * utf8.RuneCountInString(tc.Text)), H: 20}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testContext(canvas geom.Size) (*EditorContext, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	n := 0
	return &EditorContext{
		Canvas:   canvas,
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Events:   NewBus(),
		Measurer: runeMeasurer{},
		NewID:    func() string { n++; return fmt.Sprintf("obj%d", n) },
		Now:      clock.Now,
	}, clock
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
