/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "canvasstudio/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// CacheDirName stores all per-project ephemeral data under the project root.
	CacheDirName  = ".csd"
	CacheFileName = "cache.sqlite"

	cacheSchemaVersion = 1
)

// CachePath returns the full path to the project's embedded cache database.
func CachePath(projectRoot string) string {
	return filepath.Join(projectRoot, CacheDirName, CacheFileName)
}

// InitOrOpenCache ensures the per-project SQLite cache exists at
// .csd/cache.sqlite, opens the database, enables WAL mode, and ensures the
// schema is current. Callers close the returned *sql.DB when done.
func InitOrOpenCache(projectRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "cache_init").With(
		slog.String("root", projectRoot),
	)
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	if err := os.MkdirAll(filepath.Join(projectRoot, CacheDirName), 0o755); err != nil {
		l.Error("create .csd dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .csd dir: %w", err)
	}

	// Forward slashes for the SQLite URI, shared cache, busy timeout.
	uriPath := filepath.ToSlash(CachePath(projectRoot))
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	if err := ensureCacheSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureCacheSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS thumbnails (
			page_id     TEXT PRIMARY KEY,
			png         BLOB NOT NULL,
			w           INTEGER NOT NULL DEFAULT 0,
			h           INTEGER NOT NULL DEFAULT 0,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS autosaves (
			id   INTEGER PRIMARY KEY,
			ts   TEXT NOT NULL,
			doc  BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_autosaves_ts ON autosaves(ts);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure cache schema: %w", err)
		}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", cacheSchemaVersion))
	return err
}

// SaveThumbnail stores or replaces the rendered PNG thumbnail for a page.
func SaveThumbnail(ctx context.Context, ph *ProjectHandle, pageID string, png []byte, w, h int) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenCache(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx,
		`INSERT INTO thumbnails(page_id, png, w, h, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(page_id) DO UPDATE SET png = excluded.png, w = excluded.w, h = excluded.h, updated_at = excluded.updated_at`,
		pageID, png, w, h, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// GetThumbnail returns the cached thumbnail PNG for a page, or nil if absent.
func GetThumbnail(ctx context.Context, ph *ProjectHandle, pageID string) ([]byte, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenCache(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	var png []byte
	err = db.QueryRowContext(ctx, `SELECT png FROM thumbnails WHERE page_id = ?`, pageID).Scan(&png)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return png, nil
}

// PruneThumbnails removes thumbnails for pages no longer in the project.
func PruneThumbnails(ctx context.Context, ph *ProjectHandle) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	live := make(map[string]struct{}, len(ph.Project.Pages))
	for i := range ph.Project.Pages {
		live[ph.Project.Pages[i].ID] = struct{}{}
	}
	db, err := InitOrOpenCache(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, `SELECT page_id FROM thumbnails`)
	if err != nil {
		return 0, err
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, err
		}
		if _, ok := live[id]; !ok {
			stale = append(stale, id)
		}
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	var removed int64
	for _, id := range stale {
		res, err := db.ExecContext(ctx, `DELETE FROM thumbnails WHERE page_id = ?`, id)
		if err != nil {
			return removed, err
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return removed, nil
}

// SaveAutosave persists a serialized document snapshot with a timestamp.
func SaveAutosave(ctx context.Context, ph *ProjectHandle, doc []byte, ts time.Time) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenCache(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, `INSERT INTO autosaves(ts, doc) VALUES (?, ?)`,
		ts.UTC().Format(time.RFC3339Nano), doc)
	return err
}

// LatestAutosave returns the most recent autosave blob, or nil if none exists.
func LatestAutosave(ctx context.Context, ph *ProjectHandle) ([]byte, time.Time, error) {
	if ph == nil {
		return nil, time.Time{}, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenCache(ph.Root)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var doc []byte
	err = db.QueryRowContext(ctx, `SELECT ts, doc FROM autosaves ORDER BY ts DESC LIMIT 1`).Scan(&tsStr, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	ts, perr := time.Parse(time.RFC3339Nano, tsStr)
	if perr != nil {
		return doc, time.Time{}, nil
	}
	return doc, ts, nil
}

// PruneAutosaves keeps at most keepLast autosaves and deletes older ones.
func PruneAutosaves(ctx context.Context, ph *ProjectHandle, keepLast int) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenCache(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, `DELETE FROM autosaves WHERE id NOT IN (
		SELECT id FROM autosaves ORDER BY ts DESC LIMIT ?
	)`, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
