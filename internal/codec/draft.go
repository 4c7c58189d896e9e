/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package codec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/google/uuid"
)

// ErrDraftNotFound is returned by draft stores for unknown ids.
var ErrDraftNotFound = errors.New("draft not found")

// Draft is the unit handed to external storage: the blob plus the product
// context it was designed in and an optional PNG thumbnail.
type Draft struct {
	ID        string
	Name      string
	ProductID string
	Variant   string
	Size      string
	View      string
	Zone      string
	Blob      []byte
	Thumbnail []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DraftStore persists drafts. Implementations live in storage and backend.
type DraftStore interface {
	SaveDraft(ctx context.Context, d *Draft) error
	GetDraft(ctx context.Context, id string) (*Draft, error)
	ListDrafts(ctx context.Context, productID string) ([]Draft, error)
	DeleteDraft(ctx context.Context, id string) error
}

// NewDraftID returns a time-ordered draft id.
func NewDraftID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Touch fills in the id and timestamps before a save.
func (d *Draft) Touch(now time.Time) {
	if d.ID == "" {
		d.ID = NewDraftID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
}

// EncodeThumbnail renders img as PNG bytes for Draft.Thumbnail.
func EncodeThumbnail(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
