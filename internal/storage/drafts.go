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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"designcanvas/internal/codec"
)

// language=SQL
// dialect=SQLite
const upsertDraftSQL = `INSERT INTO drafts(id, name, product_id, variant, size, view, zone, blob, thumbnail, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET name=excluded.name, product_id=excluded.product_id, variant=excluded.variant,
		size=excluded.size, view=excluded.view, zone=excluded.zone, blob=excluded.blob,
		thumbnail=excluded.thumbnail, updated_at=excluded.updated_at`

// language=SQL
// dialect=SQLite
const selectDraftSQL = `SELECT id, name, product_id, variant, size, view, zone, blob, thumbnail, created_at, updated_at
	FROM drafts WHERE id = ?`

// language=SQL
// dialect=SQLite
const listDraftsSQL = `SELECT id, name, product_id, variant, size, view, zone, blob, thumbnail, created_at, updated_at
	FROM drafts WHERE (? = '' OR product_id = ?) ORDER BY updated_at DESC, id`

// language=SQL
// dialect=SQLite
const deleteDraftSQL = `DELETE FROM drafts WHERE id = ?`

var _ codec.DraftStore = (*Store)(nil)

// SaveDraft inserts or updates a draft. The original creation time is kept
// on update.
func (s *Store) SaveDraft(ctx context.Context, d *codec.Draft) error {
	if d == nil {
		return errors.New("nil draft")
	}
	if d.ID == "" || d.UpdatedAt.IsZero() {
		d.Touch(time.Now())
	}
	_, err := s.db.ExecContext(ctx, upsertDraftSQL,
		d.ID, d.Name, d.ProductID, d.Variant, d.Size, d.View, d.Zone, d.Blob, d.Thumbnail,
		d.CreatedAt.UTC().Format(time.RFC3339Nano), d.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(r rowScanner) (*codec.Draft, error) {
	var d codec.Draft
	var created, updated string
	if err := r.Scan(&d.ID, &d.Name, &d.ProductID, &d.Variant, &d.Size, &d.View, &d.Zone, &d.Blob, &d.Thumbnail, &created, &updated); err != nil {
		return nil, err
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &d, nil
}

// GetDraft returns the draft with id or ErrDraftNotFound.
func (s *Store) GetDraft(ctx context.Context, id string) (*codec.Draft, error) {
	d, err := scanDraft(s.db.QueryRowContext(ctx, selectDraftSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query draft: %w", err)
	}
	return d, nil
}

// ListDrafts returns drafts for productID, most recently updated first.
// An empty productID lists all drafts.
func (s *Store) ListDrafts(ctx context.Context, productID string) ([]codec.Draft, error) {
	rows, err := s.db.QueryContext(ctx, listDraftsSQL, productID, productID)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []codec.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// DeleteDraft removes a draft. Unknown ids yield ErrDraftNotFound.
func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, deleteDraftSQL, id)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return nil
}
