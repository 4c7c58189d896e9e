/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":     slog.LevelDebug,
		" WARN ":    slog.LevelWarn,
		"warning":   slog.LevelWarn,
		"error":     slog.LevelError,
		"info":      slog.LevelInfo,
		"":          slog.LevelInfo,
		"verbose!!": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q)=%v want %v", in, got, want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DZC_LOG_LEVEL", "warn")
	t.Setenv("DZC_LOG_FORMAT", "json")
	t.Setenv("DZC_LOG_SOURCE", "TRUE")
	t.Setenv("DZC_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}

	t.Setenv("DZC_LOG_LEVEL", "")
	if got := FromEnv().Level; got != "info" {
		t.Fatalf("empty level should fall back to info, got %q", got)
	}
}

func TestConsoleHandlerLine(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newConsole(&buf, slog.LevelWarn, false))

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}

	l.With("component", "script").WithGroup("op").Error("rejected",
		"line", 3, "scale", 0.5, "text", "Happy birthday", "ok", false)
	out := buf.String()
	for _, want := range []string{" ERR rejected", "component=script", "op.line=3", "op.scale=0.5", `op.text="Happy birthday"`, "op.ok=false"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one line, got %q", out)
	}
}

func TestConsoleHandlerSource(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newConsole(&buf, slog.LevelInfo, true)).Info("here")
	if !strings.Contains(buf.String(), "src=logger_test.go:") {
		t.Fatalf("source missing: %q", buf.String())
	}
}

func TestConsoleHandlerInlineGroup(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newConsole(&buf, slog.LevelInfo, false)).Info("saved",
		slog.Group("draft", slog.String("id", "d1"), slog.Int("objects", 2)))
	out := buf.String()
	if !strings.Contains(out, "draft.id=d1") || !strings.Contains(out, "draft.objects=2") {
		t.Fatalf("group attrs not flattened: %q", out)
	}
}
