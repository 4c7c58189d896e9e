/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic in the editor into a crash report plus an
// autosave of the design that was open, so the session can be resumed.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"designcanvas/internal/canvas"
	applog "designcanvas/internal/log"
	"designcanvas/internal/storage"
	"designcanvas/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Session is the live state a crash handler tries to preserve.
type Session interface {
	// Dir is where reports and autosaves go; "" means the temp dir.
	Dir() string
	// Autosave persists the open design and returns the written path.
	Autosave() (string, error)
	// Describe returns extra report lines (product, view, draft, ...).
	Describe() []string
}

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file, and attempts a crash-safe autosave
// of the open design (if a session is provided).
//
// Usage: defer crash.Recover(sess)
func Recover(sess Session) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(sess, r, stack)
		if sess != nil {
			if path, err := sess.Autosave(); err != nil {
				l.Error("autosave after crash failed", slog.Any("err", err))
			} else {
				l.Info("autosave after crash written", slog.String("path", path))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

func writeReport(sess Session, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if sess != nil && sess.Dir() != "" {
		dir = filepath.Join(sess.Dir(), storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Design Canvas Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if sess != nil {
		for _, line := range sess.Describe() {
			_, _ = fmt.Fprintf(&buf, "%s\n", line)
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}

// EditorSession adapts a live editor to Session. Autosaves are design files
// named autosave-<stamp>.json under Dir.
type EditorSession struct {
	Root   string
	Name   string
	Editor *canvas.Editor
	Now    func() time.Time
}

func (s *EditorSession) Dir() string { return s.Root }

func (s *EditorSession) Autosave() (string, error) {
	if s.Editor == nil {
		return "", fmt.Errorf("no editor to autosave")
	}
	d, err := s.Editor.Draft(s.Name, nil)
	if err != nil {
		return "", fmt.Errorf("snapshot design: %w", err)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	dir := s.Root
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("autosave-%s.json", now().Format("20060102-150405")))
	if err := storage.SaveDesignFile(path, storage.FromDraft(d)); err != nil {
		return "", err
	}
	return path, nil
}

func (s *EditorSession) Describe() []string {
	if s.Editor == nil {
		return nil
	}
	lines := []string{
		"Product: " + s.Editor.Product().ID,
		"View: " + s.Editor.View().Name,
	}
	if z, ok := s.Editor.Zone(); ok {
		lines = append(lines, "Zone: "+z.ID)
	}
	if id := s.Editor.DraftID(); id != "" {
		lines = append(lines, "Draft: "+id)
	}
	lines = append(lines, fmt.Sprintf("Objects: %d", s.Editor.Scene().Len()))
	return lines
}
