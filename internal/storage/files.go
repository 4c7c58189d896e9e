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
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"designcanvas/internal/codec"
)

// BackupsDirName is the folder next to a design file that keeps its
// previous versions.
const BackupsDirName = "backups"

// DesignFile is a design saved outside the draft store: the product context
// plus the codec blob, embedded verbatim.
type DesignFile struct {
	Name      string          `json:"name"`
	ProductID string          `json:"productId"`
	Variant   string          `json:"variant,omitempty"`
	Size      string          `json:"size,omitempty"`
	View      string          `json:"view"`
	Zone      string          `json:"zone,omitempty"`
	SavedAt   time.Time       `json:"savedAt"`
	Design    json.RawMessage `json:"design"`
}

// FromDraft builds a design file from draft metadata and blob.
func FromDraft(d *codec.Draft) *DesignFile {
	return &DesignFile{
		Name: d.Name, ProductID: d.ProductID, Variant: d.Variant, Size: d.Size,
		View: d.View, Zone: d.Zone, SavedAt: d.UpdatedAt, Design: json.RawMessage(d.Blob),
	}
}

// Draft converts the file back into a draft without an id.
func (f *DesignFile) Draft() *codec.Draft {
	return &codec.Draft{
		Name: f.Name, ProductID: f.ProductID, Variant: f.Variant, Size: f.Size,
		View: f.View, Zone: f.Zone, Blob: []byte(f.Design),
	}
}

// SaveDesignFile writes f to path atomically. An existing file is first
// copied to a timestamped backup in backups/ next to it.
func SaveDesignFile(path string, f *DesignFile) error {
	if f == nil {
		return errors.New("nil design file")
	}
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	if len(f.Design) == 0 {
		f.Design = json.RawMessage(`{"version":1,"objects":[]}`)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal design file: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000")
		bpath := filepath.Join(dir, BackupsDirName, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
		if cerr := copyFile(path, bpath); cerr != nil {
			return fmt.Errorf("backup current design: %w", cerr)
		}
	}

	// Write to a temp file in the same directory, then rename over the target.
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp design: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace design: %w", rerr)
	}
	return nil
}

// OpenDesignFile reads a design file. If it is missing or unreadable, the
// newest backup is used instead.
func OpenDesignFile(path string) (*DesignFile, error) {
	f, err := readDesignFile(path)
	if err == nil {
		return f, nil
	}
	bf, berr := openLatestBackup(path)
	if berr != nil {
		return nil, fmt.Errorf("open design: %w; backup attempt: %v", err, berr)
	}
	return bf, nil
}

func readDesignFile(path string) (*DesignFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f DesignFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

func openLatestBackup(path string) (*DesignFile, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	return readDesignFile(candidates[len(candidates)-1])
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
