/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package version holds build metadata set via -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time, e.g.
//
//	-ldflags "-X designcanvas/internal/version.Version=v0.3.0 -X designcanvas/internal/version.Commit=abc123"
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String returns a human readable version line.
func String() string {
	commit := Commit
	if commit == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					commit = s.Value[:7]
				}
			}
		}
	}
	out := "designcanvas " + Version
	if commit != "" {
		out += fmt.Sprintf(" (%s)", commit)
	}
	if Date != "" {
		out += " built " + Date
	}
	return out
}
