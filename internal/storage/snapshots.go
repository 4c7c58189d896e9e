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
	"log/slog"
	"time"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(session, ts, blob) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT ts, blob FROM snapshots WHERE session = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, blob FROM snapshots WHERE session = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE session = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE session = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// Snapshot is one mirrored history entry.
type Snapshot struct {
	TS   time.Time
	Blob []byte
}

// SaveSnapshot persists a design blob for an editing session.
func (s *Store) SaveSnapshot(ctx context.Context, session string, blob []byte, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, insertSnapshotSQL, session, ts.UTC().Format(time.RFC3339Nano), blob)
	return err
}

// LatestSnapshot returns the newest blob for session, or nil if none.
func (s *Store) LatestSnapshot(ctx context.Context, session string) ([]byte, time.Time, error) {
	var tsStr string
	var blob []byte
	err := s.db.QueryRowContext(ctx, selectLatestSnapshotSQL, session).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return blob, time.Time{}, nil // return blob even if ts parse fails
	}
	return blob, ts, nil
}

// ListSnapshots returns up to limit most recent snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context, session string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, listSnapshotsSQL, session, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		var tsStr string
		var blob []byte
		if err := rows.Scan(&tsStr, &blob); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, Snapshot{TS: ts, Blob: blob})
	}
	return out, rows.Err()
}

// PruneSnapshots keeps the newest keepLast snapshots of session.
func (s *Store) PruneSnapshots(ctx context.Context, session string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, pruneOldSnapshotsSQL, session, session, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HistoryMirror returns a history recorder that writes each committed
// snapshot of session to the store and keeps the newest keep entries.
// Failures are logged; local editing never waits on or rolls back for them.
func (s *Store) HistoryMirror(session string, keep int) func(blob []byte, ts time.Time) {
	l := s.log.With(slog.String("op", "history_mirror"), slog.String("session", session))
	return func(blob []byte, ts time.Time) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.SaveSnapshot(ctx, session, blob, ts); err != nil {
			l.Warn("mirror snapshot failed", slog.Any("err", err))
			return
		}
		if _, err := s.PruneSnapshots(ctx, session, keep); err != nil {
			l.Warn("prune snapshots failed", slog.Any("err", err))
		}
	}
}
