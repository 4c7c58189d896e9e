/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package codec converts scene contents to and from the versioned design
// blob handed to external storage. Background images and zone guides are not
// part of the blob; they come from the product definition.
package codec

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"designcanvas/internal/design"
	"designcanvas/internal/geom"
)

// FormatVersion is the blob version written by Encode.
const FormatVersion = 1

// ErrCorruptDesignState is returned for blobs that cannot be turned back into
// a scene. Callers fall back to an empty scene.
var ErrCorruptDesignState = errors.New("corrupt design state")

//go:embed design.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Document is the decoded content of a blob: canvas metadata plus the
// objects bottom-to-top.
type Document struct {
	Canvas  geom.Size
	Objects []*design.Object
}

type wireDoc struct {
	Version int          `json:"version"`
	Canvas  *wireSize    `json:"canvas,omitempty"`
	Objects []wireObject `json:"objects"`
}

type wireSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type wireTransform struct {
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	ScaleX  float64  `json:"scaleX"`
	ScaleY  float64  `json:"scaleY"`
	Angle   float64  `json:"angle"`
	FlipX   bool     `json:"flipX"`
	FlipY   bool     `json:"flipY"`
	Opacity *float64 `json:"opacity,omitempty"`
}

type wireText struct {
	Text       string  `json:"text"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	Fill       string  `json:"fill,omitempty"`
	Bold       bool    `json:"bold,omitempty"`
	Italic     bool    `json:"italic,omitempty"`
}

type wireImage struct {
	Ref    string  `json:"ref"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type wireObject struct {
	ID         string        `json:"id,omitempty"`
	Kind       design.Kind   `json:"kind"`
	Visible    bool          `json:"visible"`
	Selectable bool          `json:"selectable"`
	Width      float64       `json:"width"`
	Height     float64       `json:"height"`
	Transform  wireTransform `json:"transform"`
	Text       *wireText     `json:"text,omitempty"`
	Image      *wireImage    `json:"image,omitempty"`
}

// Encode serializes a document. Output is deterministic for equal input.
func Encode(doc Document) ([]byte, error) {
	w := wireDoc{Version: FormatVersion, Objects: make([]wireObject, 0, len(doc.Objects))}
	if !doc.Canvas.IsEmpty() {
		w.Canvas = &wireSize{Width: doc.Canvas.W, Height: doc.Canvas.H}
	}
	for _, o := range doc.Objects {
		wo, err := toWire(o)
		if err != nil {
			return nil, err
		}
		w.Objects = append(w.Objects, wo)
	}
	return json.Marshal(w)
}

func toWire(o *design.Object) (wireObject, error) {
	t := o.Transform
	wo := wireObject{
		ID:         o.ID,
		Kind:       o.Kind,
		Visible:    o.Visible,
		Selectable: o.Selectable(),
		Width:      o.Size.W,
		Height:     o.Size.H,
		Transform: wireTransform{
			X: t.X, Y: t.Y, ScaleX: t.ScaleX, ScaleY: t.ScaleY, Angle: t.Rotation,
			FlipX: t.FlipX, FlipY: t.FlipY, Opacity: &t.Opacity,
		},
	}
	switch o.Kind {
	case design.KindText:
		if o.Text == nil {
			return wireObject{}, fmt.Errorf("encode %s: text object without content", o.ID)
		}
		tc := o.Text
		wo.Text = &wireText{Text: tc.Text, FontFamily: tc.FontFamily, FontSize: tc.FontSize, Fill: tc.Fill, Bold: tc.Bold, Italic: tc.Italic}
	case design.KindImage:
		if o.Image == nil {
			return wireObject{}, fmt.Errorf("encode %s: image object without content", o.ID)
		}
		r := o.Image.Ref
		wo.Image = &wireImage{Ref: r.Key, Width: r.Width, Height: r.Height}
	default:
		return wireObject{}, fmt.Errorf("encode %s: unknown kind %q", o.ID, o.Kind)
	}
	return wo, nil
}

// Decode parses a blob, assigning fresh ids from design.NewID where needed.
func Decode(blob []byte) (Document, error) { return DecodeWith(blob, design.NewID) }

// DecodeWith parses a blob using newID for objects whose id is missing or
// already taken by an earlier object. Decoded objects are always interactive.
func DecodeWith(blob []byte, newID func() string) (Document, error) {
	if err := validate(blob); err != nil {
		return Document{}, err
	}
	var w wireDoc
	if err := json.Unmarshal(blob, &w); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrCorruptDesignState, err)
	}
	if w.Version > FormatVersion {
		return Document{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptDesignState, w.Version)
	}
	doc := Document{Objects: make([]*design.Object, 0, len(w.Objects))}
	if w.Canvas != nil {
		doc.Canvas = geom.Size{W: w.Canvas.Width, H: w.Canvas.Height}
	}
	seen := make(map[string]bool, len(w.Objects))
	for i, wo := range w.Objects {
		o, err := fromWire(wo)
		if err != nil {
			return Document{}, fmt.Errorf("%w: object %d: %v", ErrCorruptDesignState, i, err)
		}
		if o.ID == "" || seen[o.ID] {
			o.ID = newID()
		}
		seen[o.ID] = true
		doc.Objects = append(doc.Objects, o)
	}
	return doc, nil
}

func fromWire(wo wireObject) (*design.Object, error) {
	t := wo.Transform
	o := &design.Object{
		ID:      wo.ID,
		Kind:    wo.Kind,
		Size:    geom.Size{W: wo.Width, H: wo.Height},
		Visible: wo.Visible,
		Transform: geom.Transform{
			X: t.X, Y: t.Y, ScaleX: t.ScaleX, ScaleY: t.ScaleY, Rotation: t.Angle,
			FlipX: t.FlipX, FlipY: t.FlipY, Opacity: 1,
		},
	}
	if t.Opacity != nil {
		o.Transform.Opacity = *t.Opacity
	}
	switch wo.Kind {
	case design.KindText:
		if wo.Text == nil {
			return nil, errors.New("text object without text content")
		}
		tc := wo.Text
		o.Text = &design.TextContent{Text: tc.Text, FontFamily: tc.FontFamily, FontSize: tc.FontSize, Fill: tc.Fill, Bold: tc.Bold, Italic: tc.Italic}
	case design.KindImage:
		if wo.Image == nil {
			return nil, errors.New("image object without image content")
		}
		o.Image = &design.ImageContent{Ref: design.ImageRef{Key: wo.Image.Ref, Width: wo.Image.Width, Height: wo.Image.Height}}
	default:
		return nil, fmt.Errorf("unknown kind %q", wo.Kind)
	}
	if !o.Valid() {
		return nil, errors.New("content does not match kind or is empty")
	}
	return o, nil
}

func validate(blob []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("load design schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(blob))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptDesignState, err)
	}
	if !res.Valid() {
		msg := ""
		for i, e := range res.Errors() {
			if i > 0 {
				msg += "; "
			}
			msg += e.String()
		}
		return fmt.Errorf("%w: %s", ErrCorruptDesignState, msg)
	}
	return nil
}
