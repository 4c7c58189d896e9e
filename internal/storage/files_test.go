/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"designcanvas/internal/codec"
)

func TestDesignFileSaveOpenAndBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tee.design.json")
	d := &codec.Draft{Name: "tee", ProductID: "tee-classic", View: "Front", Zone: "chest",
		Blob: []byte(`{"version":1,"objects":[]}`), UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := SaveDesignFile(path, FromDraft(d)); err != nil {
		t.Fatalf("SaveDesignFile: %v", err)
	}
	f, err := OpenDesignFile(path)
	if err != nil {
		t.Fatalf("OpenDesignFile: %v", err)
	}
	if f.ProductID != "tee-classic" || f.Zone != "chest" {
		t.Fatalf("file = %+v", f)
	}
	var doc map[string]any
	if err := json.Unmarshal(f.Design, &doc); err != nil || doc["version"].(float64) != 1 {
		t.Fatalf("design payload: %s %v", f.Design, err)
	}
	back := f.Draft()
	if back.Name != "tee" || back.View != "Front" {
		t.Fatalf("draft = %+v", back)
	}

	// second save backs up the first
	f.Name = "tee v2"
	if err := SaveDesignFile(path, f); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, BackupsDirName))
	if len(entries) != 1 {
		t.Fatalf("backups = %d", len(entries))
	}

	// a broken file falls back to the latest backup
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err = OpenDesignFile(path)
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if f.Name != "tee" {
		t.Fatalf("fallback name = %q", f.Name)
	}
}

func TestOpenDesignFileMissing(t *testing.T) {
	if _, err := OpenDesignFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error")
	}
}
