/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"bytes"
	"sync"
	"time"
)

// DefaultMaxDepth is the history depth used when Config.MaxDepth is unset.
const DefaultMaxDepth = 50

// Snapshot represents a reversible state blob.
// Blob content is opaque to the stack; size is estimated as len(Blob).
// TS is when the snapshot was captured. Coalescable marks snapshots that a
// following coalescing push within MinInterval may replace.
type Snapshot struct {
	Blob        []byte
	TS          time.Time
	Coalescable bool
}

// Config controls depth and memory caps and coalescing behavior.
type Config struct {
	// MaxDepth limits the number of history entries; the oldest is evicted first.
	MaxDepth int
	// MaxBytes is a soft cap; older entries are pruned when exceeded (0 means unlimited).
	// The newest entry is always kept.
	MaxBytes int
	// MinInterval is the coalescing window for Coalesce.
	MinInterval time.Duration
}

// Stack is a linear undo/redo history. The top of the history stack is the
// current state; Undo moves it to the redo stack and exposes the entry below.
// It is safe for concurrent use.
type Stack struct {
	cfg        Config
	mu         sync.Mutex
	history    []Snapshot
	redo       []Snapshot
	totalBytes int
}

func NewStack(cfg Config) *Stack {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = time.Second
	}
	return &Stack{cfg: cfg}
}

// Reset drops all entries and seeds the history with the initial state.
func (s *Stack) Reset(initial Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	initial.Coalescable = false
	s.history = []Snapshot{initial}
	s.redo = nil
	s.totalBytes = len(initial.Blob)
}

// Push records a snapshot unless it equals the current top. A successful push
// clears the redo stack. It reports whether an entry was added.
func (s *Stack) Push(snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.history); n > 0 && bytes.Equal(s.history[n-1].Blob, snap.Blob) {
		return false
	}
	s.history = append(s.history, snap)
	s.totalBytes += len(snap.Blob)
	s.redo = nil
	s.enforceCapsLocked()
	return true
}

// Coalesce behaves like Push, except that when the top entry is itself
// coalescable and was captured less than MinInterval before snap, the top is
// replaced instead of a new entry being added.
func (s *Stack) Coalesce(snap Snapshot) bool {
	snap.Coalescable = true
	s.mu.Lock()
	n := len(s.history)
	if n > 1 {
		last := s.history[n-1]
		if last.Coalescable && snap.TS.Sub(last.TS) < s.cfg.MinInterval {
			if bytes.Equal(last.Blob, snap.Blob) {
				s.mu.Unlock()
				return false
			}
			s.totalBytes += len(snap.Blob) - len(last.Blob)
			s.history[n-1] = snap
			s.redo = nil
			s.enforceCapsLocked()
			s.mu.Unlock()
			return true
		}
	}
	s.mu.Unlock()
	return s.Push(snap)
}

// Seal stops the current top from absorbing further coalescing pushes.
func (s *Stack) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.history); n > 0 {
		s.history[n-1].Coalescable = false
	}
}

// DropRedo discards the redo stack. It reports whether anything was dropped.
func (s *Stack) DropRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.redo) == 0 {
		return false
	}
	s.redo = nil
	return true
}

// Top returns the current state.
func (s *Stack) Top() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return Snapshot{}, false
	}
	return s.history[len(s.history)-1], true
}

// Undo moves the top entry to the redo stack and returns the new top.
// The bottom entry is never undone past, so Undo needs at least two entries.
func (s *Stack) Undo() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.history)
	if n <= 1 {
		return Snapshot{}, false
	}
	top := s.history[n-1]
	top.Coalescable = false
	s.history = s.history[:n-1]
	s.totalBytes -= len(top.Blob)
	s.redo = append(s.redo, top)
	return s.history[n-2], true
}

// Redo pops from redo and pushes back to history, returning it.
func (s *Stack) Redo() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := len(s.redo)
	if r == 0 {
		return Snapshot{}, false
	}
	snap := s.redo[r-1]
	s.redo = s.redo[:r-1]
	s.history = append(s.history, snap)
	s.totalBytes += len(snap.Blob)
	s.enforceCapsLocked()
	return snap, true
}

// Len is the number of history entries, including the current state.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// RedoLen is the number of undone entries available for redo.
func (s *Stack) RedoLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo)
}

// Stats returns current sizes for diagnostics.
func (s *Stack) Stats() (totalBytes int, history int, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalBytes, len(s.history), len(s.redo)
}

func (s *Stack) enforceCapsLocked() {
	if over := len(s.history) - s.cfg.MaxDepth; over > 0 {
		for i := 0; i < over; i++ {
			s.totalBytes -= len(s.history[i].Blob)
		}
		s.history = append([]Snapshot(nil), s.history[over:]...)
	}
	for s.cfg.MaxBytes > 0 && s.totalBytes > s.cfg.MaxBytes && len(s.history) > 1 {
		s.totalBytes -= len(s.history[0].Blob)
		s.history = s.history[1:]
	}
}
