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
	"log/slog"
	"time"

	"designcanvas/internal/codec"
	"designcanvas/internal/undo"
)

// HistoryState is Idle while recording and Replaying while a snapshot is
// being restored.
type HistoryState int

const (
	Idle HistoryState = iota
	Replaying
)

func (s HistoryState) String() string {
	if s == Replaying {
		return "replaying"
	}
	return "idle"
}

// HistoryOptions bounds the history.
type HistoryOptions struct {
	MaxDepth int
	MaxBytes int
	// Debounce is the inactivity window that folds continuous edits into one
	// entry.
	Debounce time.Duration
}

// DefaultHistoryOptions keeps 50 entries and a one second debounce window.
func DefaultHistoryOptions() HistoryOptions {
	return HistoryOptions{MaxDepth: undo.DefaultMaxDepth, Debounce: time.Second}
}

// Recorder receives every committed snapshot, e.g. to mirror history into a
// local store.
type Recorder func(blob []byte, ts time.Time)

// History snapshots the scene after each committed mutation and restores
// earlier snapshots on undo and redo. The first entry is the state the scene
// had when the history was attached or last reset.
type History struct {
	scene    *Scene
	stack    *undo.Stack
	state    HistoryState
	log      *slog.Logger
	recorder Recorder
}

// NewHistory attaches a history to scene, seeded with its current state.
func NewHistory(scene *Scene, opts HistoryOptions) *History {
	h := &History{
		scene: scene,
		stack: undo.NewStack(undo.Config{MaxDepth: opts.MaxDepth, MaxBytes: opts.MaxBytes, MinInterval: opts.Debounce}),
		log:   scene.ctx.Log.With(slog.String("op", "history")),
	}
	scene.history = h
	h.Reset()
	return h
}

// SetRecorder installs fn to receive committed snapshots.
func (h *History) SetRecorder(fn Recorder) { h.recorder = fn }

// State returns the replay state.
func (h *History) State() HistoryState { return h.state }

// Reset makes the current scene the initial entry and drops redo.
func (h *History) Reset() {
	blob, err := h.scene.Serialize()
	if err != nil {
		h.log.Error("snapshot failed", slog.Any("err", err))
		return
	}
	h.stack.Reset(undo.Snapshot{Blob: blob, TS: h.scene.ctx.Now()})
	h.notify()
}

// RecordIfChanged pushes the current scene unless it equals the top entry.
// A push clears the redo stack. Nothing is recorded while replaying.
func (h *History) RecordIfChanged() bool {
	return h.record(false)
}

// RecordDebounced records like RecordIfChanged but folds entries captured
// within the debounce window of the previous debounced entry into one.
func (h *History) RecordDebounced() bool {
	return h.record(true)
}

func (h *History) record(debounced bool) bool {
	if h.state == Replaying {
		return false
	}
	blob, err := h.scene.Serialize()
	if err != nil {
		h.log.Error("snapshot failed", slog.Any("err", err))
		return false
	}
	snap := undo.Snapshot{Blob: blob, TS: h.scene.ctx.Now()}
	var pushed bool
	if debounced {
		pushed = h.stack.Coalesce(snap)
	} else {
		h.stack.Seal()
		pushed = h.stack.Push(snap)
	}
	if !pushed {
		return false
	}
	if h.recorder != nil {
		h.recorder(blob, snap.TS)
	}
	h.notify()
	return true
}

// Seal closes the current debounced group so the next edit starts a new
// entry, e.g. when a text panel is closed.
func (h *History) Seal() { h.stack.Seal() }

// DiscardRedo drops the undone entries once the live scene has diverged
// from the current entry, e.g. on the first preview after an undo.
func (h *History) DiscardRedo() {
	if h.state == Replaying {
		return
	}
	if h.stack.DropRedo() {
		h.notify()
	}
}

// Undo restores the previous entry. It is a no-op on the initial entry.
func (h *History) Undo() bool {
	snap, ok := h.stack.Undo()
	if !ok {
		return false
	}
	h.restore(snap.Blob)
	return true
}

// Redo re-applies the most recently undone entry, if any.
func (h *History) Redo() bool {
	snap, ok := h.stack.Redo()
	if !ok {
		return false
	}
	h.restore(snap.Blob)
	return true
}

func (h *History) restore(blob []byte) {
	h.state = Replaying
	defer func() { h.state = Idle }()
	doc, err := codec.DecodeWith(blob, h.scene.ctx.NewID)
	if err != nil {
		h.log.Error("restore snapshot", slog.Any("err", err))
		return
	}
	h.scene.replace(doc.Objects, false)
	h.notify()
}

// CanUndo reports whether Undo would change the scene.
func (h *History) CanUndo() bool { return h.stack.Len() > 1 }

// CanRedo reports whether Redo would change the scene.
func (h *History) CanRedo() bool { return h.stack.RedoLen() > 0 }

// Depth is the number of history entries including the initial one.
func (h *History) Depth() int { return h.stack.Len() }

// RedoDepth is the number of undone entries available to Redo.
func (h *History) RedoDepth() int { return h.stack.RedoLen() }

// Top returns the blob of the current entry.
func (h *History) Top() []byte {
	s, _ := h.stack.Top()
	return s.Blob
}

func (h *History) notify() {
	h.scene.publish(Event{Kind: HistoryChanged, CanUndo: h.CanUndo(), CanRedo: h.CanRedo()})
}
