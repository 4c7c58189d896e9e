/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package product models the externally supplied product definition:
// named views (a mockup background plus its print zones) and variants.
// Definitions are read-only to the canvas engine.
package product

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"designcanvas/internal/geom"
)

var (
	ErrInvalidProduct = errors.New("invalid product definition")
	ErrUnknownView    = errors.New("unknown view")
	ErrUnknownZone    = errors.New("unknown zone")
)

// Zone is an administrator-authored print region. X/Y/Width/Height are
// fractions of the canvas' longest side. MaxLayers and Locked are advisory.
type Zone struct {
	ID        string  `yaml:"id" json:"id"`
	Label     string  `yaml:"label" json:"label"`
	X         float64 `yaml:"x" json:"x"`
	Y         float64 `yaml:"y" json:"y"`
	Width     float64 `yaml:"width" json:"width"`
	Height    float64 `yaml:"height" json:"height"`
	MaxLayers int     `yaml:"maxLayers,omitempty" json:"maxLayers,omitempty"`
	Locked    bool    `yaml:"locked,omitempty" json:"locked,omitempty"`
}

// Degenerate reports whether the zone has no area.
func (z Zone) Degenerate() bool { return !(z.Width > 0) || !(z.Height > 0) }

// Resolve converts the normalized zone into canvas pixels. The second
// result is false for degenerate zones, which disable clamping.
func (z Zone) Resolve(canvas geom.Size) (geom.Rect, bool) {
	if z.Degenerate() || canvas.IsEmpty() {
		return geom.Rect{}, false
	}
	ref := math.Max(canvas.W, canvas.H)
	return geom.R(z.X*ref, z.Y*ref, z.Width*ref, z.Height*ref), true
}

// View is one named mockup with its zones.
type View struct {
	Name       string `yaml:"name" json:"name"`
	Background string `yaml:"backgroundImageRef" json:"backgroundImageRef"`
	// Width/Height are the reference canvas dimensions in pixels.
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
	Zones  []Zone  `yaml:"zones" json:"zones"`
}

// Canvas returns the view's canvas size.
func (v View) Canvas() geom.Size { return geom.Size{W: v.Width, H: v.Height} }

// Zone looks up a zone by id.
func (v View) Zone(id string) (Zone, error) {
	for _, z := range v.Zones {
		if z.ID == id {
			return z, nil
		}
	}
	return Zone{}, fmt.Errorf("%w: %q in view %q", ErrUnknownZone, id, v.Name)
}

// Variant is an orderable flavour of the product (e.g. a colour).
type Variant struct {
	ID    string   `yaml:"id" json:"id"`
	Name  string   `yaml:"name" json:"name"`
	Color string   `yaml:"color,omitempty" json:"color,omitempty"`
	Sizes []string `yaml:"sizes,omitempty" json:"sizes,omitempty"`
}

// Definition is the product definition supplied by the catalog.
type Definition struct {
	ID       string    `yaml:"id" json:"id"`
	Name     string    `yaml:"name" json:"name"`
	Views    []View    `yaml:"views" json:"views"`
	Variants []Variant `yaml:"variants,omitempty" json:"variants,omitempty"`
}

// View looks up a view by name (case-insensitive).
func (d *Definition) View(name string) (View, error) {
	for _, v := range d.Views {
		if strings.EqualFold(v.Name, name) {
			return v, nil
		}
	}
	return View{}, fmt.Errorf("%w: %q", ErrUnknownView, name)
}

// Variant looks up a variant by id.
func (d *Definition) Variant(id string) (Variant, bool) {
	for _, v := range d.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// Validate reports authoring errors. Degenerate zones are reported but are
// tolerated by the engine, which simply disables clamping for them.
func (d *Definition) Validate() error {
	var problems []string
	if strings.TrimSpace(d.ID) == "" {
		problems = append(problems, "missing product id")
	}
	if len(d.Views) == 0 {
		problems = append(problems, "no views")
	}
	views := map[string]bool{}
	for _, v := range d.Views {
		key := strings.ToLower(v.Name)
		if v.Name == "" {
			problems = append(problems, "view without name")
		} else if views[key] {
			problems = append(problems, fmt.Sprintf("duplicate view %q", v.Name))
		}
		views[key] = true
		if v.Width <= 0 || v.Height <= 0 {
			problems = append(problems, fmt.Sprintf("view %q: canvas size must be positive", v.Name))
			continue
		}
		canvas := geom.R(0, 0, v.Width, v.Height)
		zones := map[string]bool{}
		for _, z := range v.Zones {
			if z.ID == "" {
				problems = append(problems, fmt.Sprintf("view %q: zone without id", v.Name))
			} else if zones[z.ID] {
				problems = append(problems, fmt.Sprintf("view %q: duplicate zone %q", v.Name, z.ID))
			}
			zones[z.ID] = true
			r, ok := z.Resolve(v.Canvas())
			if !ok {
				problems = append(problems, fmt.Sprintf("view %q: zone %q has no area", v.Name, z.ID))
				continue
			}
			if !canvas.ContainsRect(r, 1e-6) {
				problems = append(problems, fmt.Sprintf("view %q: zone %q exceeds canvas", v.Name, z.ID))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProduct, strings.Join(problems, "; "))
	}
	return nil
}

// Parse decodes a definition from YAML (JSON is accepted as a YAML subset).
func Parse(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	return &d, nil
}

// Load reads and parses a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read product %s: %w", path, err)
	}
	return Parse(data)
}
