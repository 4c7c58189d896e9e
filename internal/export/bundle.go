/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "designcanvas/internal/log"
	"designcanvas/internal/version"
)

// Entry names inside a bundle.
const (
	BundleDesign    = "design.json"
	BundleThumbnail = "thumbnail.png"
	BundleProof     = "proof.pdf"
	BundleManifest  = "bundle.manifest.txt"
)

// Bundle is the content of a design bundle. Empty parts are left out of the
// archive; Design is required.
type Bundle struct {
	ProductID string
	View      string
	Design    []byte
	Thumbnail []byte
	Proof     []byte
}

// WriteBundle zips b into destZipPath. The archive carries a small manifest
// at its root for quick human inspection.
func WriteBundle(destZipPath string, b Bundle) (err error) {
	l := applog.WithOperation(applog.WithComponent("export"), "bundle").With(slog.String("zip", destZipPath))
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	if len(b.Design) == 0 {
		return errors.New("bundle has no design")
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() {
		if cerr := zf.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("Design Canvas Bundle\nCreated: %s\nVersion: %s\nProduct: %s\nView: %s\n",
		time.Now().Format(time.RFC3339), version.Version, b.ProductID, b.View)
	parts := []struct {
		name string
		data []byte
	}{
		{BundleManifest, []byte(manifest)},
		{BundleDesign, b.Design},
		{BundleThumbnail, b.Thumbnail},
		{BundleProof, b.Proof},
	}
	added := 0
	for _, p := range parts {
		if len(p.data) == 0 {
			continue
		}
		if err := addZipFile(zw, p.name, p.data); err != nil {
			l.Error("zip build failed", slog.Any("err", err))
			return fmt.Errorf("zip add %s: %w", p.name, err)
		}
		added++
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	l.Info("bundle exported", slog.Int("files", added))
	return nil
}

// ReadBundle loads the parts of a bundle written by WriteBundle. Unknown
// entries are ignored.
func ReadBundle(path string) (Bundle, error) {
	var b Bundle
	r, err := zip.OpenReader(path)
	if err != nil {
		return b, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = r.Close() }()
	for _, f := range r.File {
		var dst *[]byte
		switch f.Name {
		case BundleDesign:
			dst = &b.Design
		case BundleThumbnail:
			dst = &b.Thumbnail
		case BundleProof:
			dst = &b.Proof
		case BundleManifest:
			if data, err := readZipFile(f); err == nil {
				b.ProductID, b.View = parseManifest(string(data))
			}
			continue
		default:
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return b, fmt.Errorf("read %s: %w", f.Name, err)
		}
		*dst = data
	}
	if len(b.Design) == 0 {
		return b, fmt.Errorf("bundle %s has no %s", path, BundleDesign)
	}
	return b, nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

func parseManifest(s string) (productID, view string) {
	for _, ln := range strings.Split(s, "\n") {
		k, v, ok := strings.Cut(ln, ": ")
		if !ok {
			continue
		}
		switch k {
		case "Product":
			productID = v
		case "View":
			view = v
		}
	}
	return productID, view
}
