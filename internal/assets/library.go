/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package assets is the image library behind image objects. It decodes files
// under a root directory into design.ImageRef handles carrying the native
// pixel size and keeps the decoded pixels for rendering.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"designcanvas/internal/design"
)

var (
	ErrUnsupported = errors.New("unsupported image")
	ErrEmptyImage  = errors.New("image has no pixels")
	ErrBadKey      = errors.New("asset key escapes library root")
)

var extensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".webp": true}

// Supported reports whether the file name has a decodable image extension.
func Supported(name string) bool { return extensions[strings.ToLower(filepath.Ext(name))] }

// Decode reads one image and returns it with its format name.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, format, ErrEmptyImage
	}
	return img, format, nil
}

// Library resolves slash-separated keys relative to Root. Decoded images are
// cached; it is safe for concurrent use.
type Library struct {
	root  string
	mu    sync.Mutex
	cache map[string]image.Image
}

func NewLibrary(root string) *Library {
	return &Library{root: root, cache: map[string]image.Image{}}
}

// Root returns the library directory.
func (l *Library) Root() string { return l.root }

func (l *Library) path(key string) (string, error) {
	rel := filepath.FromSlash(key)
	if key == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return filepath.Join(l.root, rel), nil
}

// Image returns the decoded pixels for key.
func (l *Library) Image(key string) (image.Image, error) {
	l.mu.Lock()
	img, ok := l.cache[key]
	l.mu.Unlock()
	if ok {
		return img, nil
	}
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open asset %s: %w", key, err)
	}
	defer f.Close()
	img, _, err = Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", key, err)
	}
	l.mu.Lock()
	l.cache[key] = img
	l.mu.Unlock()
	return img, nil
}

// Ref returns the handle an image object is created from.
func (l *Library) Ref(key string) (design.ImageRef, error) {
	img, err := l.Image(key)
	if err != nil {
		return design.ImageRef{}, err
	}
	b := img.Bounds()
	return design.ImageRef{Key: key, Width: float64(b.Dx()), Height: float64(b.Dy())}, nil
}

// Import copies the file at src into the library under its base name and
// returns its handle. An existing key of the same name is overwritten.
func (l *Library) Import(src string) (design.ImageRef, error) {
	name := filepath.Base(src)
	if !Supported(name) {
		return design.ImageRef{}, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return design.ImageRef{}, fmt.Errorf("read %s: %w", src, err)
	}
	if _, _, err := Decode(bytes.NewReader(data)); err != nil {
		return design.ImageRef{}, fmt.Errorf("import %s: %w", src, err)
	}
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return design.ImageRef{}, err
	}
	if err := os.WriteFile(filepath.Join(l.root, name), data, 0o644); err != nil {
		return design.ImageRef{}, fmt.Errorf("store %s: %w", name, err)
	}
	l.mu.Lock()
	delete(l.cache, name)
	l.mu.Unlock()
	return l.Ref(name)
}

// Keys lists the decodable files in the library, sorted.
func (l *Library) Keys() ([]string, error) {
	var keys []string
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !Supported(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	sort.Strings(keys)
	return keys, err
}
