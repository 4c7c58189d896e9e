/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFamily is the bundled family used for text without a family.
const DefaultFamily = "Go"

// FontLibrary stores loaded OpenType fonts mapped by family/weight/italic.
// Faces are cached per size since text layers are re-measured on every edit.
type FontLibrary struct {
	mu    sync.Mutex
	fonts map[fontKey]*opentype.Font
	faces map[faceKey]font.Face
}

type fontKey struct {
	family string
	weight int
	italic bool
}

type faceKey struct {
	fontKey
	size float64
}

func NewFontLibrary() *FontLibrary {
	return &FontLibrary{fonts: make(map[fontKey]*opentype.Font), faces: make(map[faceKey]font.Face)}
}

// LoadTTF loads a font file into the library under the given family/weight/italic.
func (fl *FontLibrary) LoadTTF(family string, weight int, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.Add(family, weight, italic, data)
}

// Add parses raw font bytes and registers them.
func (fl *FontLibrary) Add(family string, weight int, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
		fl.faces = make(map[faceKey]font.Face)
	}
	fl.fonts[fontKey{family: normFamily(family), weight: weight, italic: italic}] = f
	return nil
}

// AddGoFonts registers the bundled Go fonts as DefaultFamily (regular, bold,
// italic, bold italic) and "Go Mono".
func (fl *FontLibrary) AddGoFonts() error {
	for _, f := range []struct {
		family string
		weight int
		italic bool
		data   []byte
	}{
		{DefaultFamily, 400, false, goregular.TTF},
		{DefaultFamily, 700, false, gobold.TTF},
		{DefaultFamily, 400, true, goitalic.TTF},
		{DefaultFamily, 700, true, gobolditalic.TTF},
		{"Go Mono", 400, false, gomono.TTF},
	} {
		if err := fl.Add(f.family, f.weight, f.italic, f.data); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir registers every .ttf/.otf file below dir. The family, weight and
// style come from the file name: "Family-BoldItalic.ttf" is Family at 700,
// italic. It returns the number of fonts loaded.
func (fl *FontLibrary) LoadDir(dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if d.IsDir() || (ext != ".ttf" && ext != ".otf") {
			return nil
		}
		family, weight, italic := styleFromName(strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())))
		if err := fl.LoadTTF(family, weight, italic, path); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func styleFromName(name string) (family string, weight int, italic bool) {
	family, style, _ := strings.Cut(name, "-")
	style = strings.ToLower(style)
	weight = 400
	if strings.Contains(style, "bold") {
		weight = 700
	}
	italic = strings.Contains(style, "italic") || strings.Contains(style, "oblique")
	return family, weight, italic
}

// Families lists the registered family names.
func (fl *FontLibrary) Families() []string {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for k := range fl.fonts {
		if !seen[k.family] {
			seen[k.family] = true
			out = append(out, k.family)
		}
	}
	return out
}

func normFamily(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (fl *FontLibrary) find(spec FontSpec) (fontKey, *opentype.Font) {
	want := fontKey{family: normFamily(spec.Family), weight: spec.Weight, italic: spec.Italic}
	// Exact match first
	if f, ok := fl.fonts[want]; ok {
		return want, f
	}
	// Same family, matching style first, then any weight
	var best fontKey
	var bestF *opentype.Font
	bestScore := -1
	for k, f := range fl.fonts {
		if k.family != want.family {
			continue
		}
		score := 0
		if k.italic == want.italic {
			score += 2
		}
		if (k.weight >= 600) == (want.weight >= 600) {
			score++
		}
		if score > bestScore || (score == bestScore && k.weight < best.weight) {
			best, bestF, bestScore = k, f, score
		}
	}
	return best, bestF
}

func (fl *FontLibrary) face(spec FontSpec, dpi float64) (font.Face, bool) {
	if fl == nil {
		return nil, false
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	k, f := fl.find(spec)
	if f == nil {
		return nil, false
	}
	fk := faceKey{fontKey: k, size: spec.SizePx}
	if face, ok := fl.faces[fk]; ok {
		return face, true
	}
	// Size is in pixels; at 72 DPI one point equals one pixel.
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.SizePx, DPI: dpi, Hinting: font.HintingFull})
	if err != nil {
		return nil, false
	}
	fl.faces[fk] = face
	return face, true
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another
// Provider. Specs without a family use Default.
type OTProvider struct {
	Lib      *FontLibrary
	Default  string
	Fallback Provider
}

// NewOTProvider returns a provider over the bundled Go fonts plus the fonts
// found in dir ("" loads none).
func NewOTProvider(dir string) (OTProvider, error) {
	lib := NewFontLibrary()
	if err := lib.AddGoFonts(); err != nil {
		return OTProvider{}, err
	}
	if dir != "" {
		if _, err := lib.LoadDir(dir); err != nil {
			return OTProvider{}, fmt.Errorf("load fonts from %s: %w", dir, err)
		}
	}
	return OTProvider{Lib: lib, Default: DefaultFamily, Fallback: BasicProvider{}}, nil
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.SizePx <= 0 {
		spec.SizePx = DefaultSize
	}
	if strings.TrimSpace(spec.Family) == "" {
		spec.Family = p.Default
	}
	if face, ok := p.Lib.face(spec, 72); ok {
		m := face.Metrics()
		return face, Metrics{
			Ascent:  float64(m.Ascent.Round()),
			Descent: float64(m.Descent.Round()),
			LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
			Scale:   1,
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
