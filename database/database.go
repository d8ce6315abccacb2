package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sdcard/logging"
	"sdcard/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase opens the database, creating the schema if needed
func InitDatabase(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("cannot create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// Scanner workers write concurrently through a single connection
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS views (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		width INTEGER,
		height INTEGER,
		factor INTEGER,
		decoded_width INTEGER,
		decoded_height INTEGER,
		viewed_at TEXT
	);
	CREATE TABLE IF NOT EXISTS media (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		format TEXT,
		width INTEGER,
		height INTEGER,
		factor INTEGER NOT NULL DEFAULT 1,
		size INTEGER,
		modified_at TEXT,
		indexed_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_views_viewed_at ON views(viewed_at);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, err
	}

	if err := addColumnIfMissing(db, "media", "factor", "INTEGER NOT NULL DEFAULT 1"); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func addColumnIfMissing(db *sql.DB, table, column, decl string) error {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column).Scan(&count)
	if err != nil {
		return fmt.Errorf("error checking for %s column: %w", column, err)
	}
	if count > 0 {
		return nil
	}

	if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", table, column, decl)); err != nil {
		return fmt.Errorf("error adding %s column: %w", column, err)
	}
	logging.DebugLog("Added '%s' column to existing %s table", column, table)
	return nil
}

// RecordView stores one displayed image in the view history
func RecordView(db *sql.DB, view types.ViewRecord) (int64, error) {
	viewedAt := view.ViewedAt
	if viewedAt == "" {
		// UTC keeps the text ordering of viewed_at chronological
		viewedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	res, err := db.Exec(`
		INSERT INTO views (path, width, height, factor, decoded_width, decoded_height, viewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		view.Path, view.Width, view.Height, view.Factor, view.DecodedWidth, view.DecodedHeight, viewedAt)
	if err != nil {
		return 0, fmt.Errorf("cannot record view of %s: %w", view.Path, err)
	}
	return res.LastInsertId()
}

// RecentViews returns the latest views, newest first
func RecentViews(db *sql.DB, limit int) ([]types.ViewRecord, error) {
	rows, err := db.Query(`
		SELECT id, path, width, height, factor, decoded_width, decoded_height, viewed_at
		FROM views ORDER BY viewed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("cannot query views: %w", err)
	}
	defer rows.Close()

	var views []types.ViewRecord
	for rows.Next() {
		var v types.ViewRecord
		if err := rows.Scan(&v.ID, &v.Path, &v.Width, &v.Height, &v.Factor, &v.DecodedWidth, &v.DecodedHeight, &v.ViewedAt); err != nil {
			return nil, fmt.Errorf("cannot scan view: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// CheckMediaExists checks if a media file is indexed and returns its stored modification time
func CheckMediaExists(db *sql.DB, path string) (bool, string, error) {
	var storedModTime string
	err := db.QueryRow("SELECT modified_at FROM media WHERE path = ?", path).Scan(&storedModTime)
	if err == sql.ErrNoRows {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("database error for %s: %w", path, err)
	}
	return true, storedModTime, nil
}

// StoreMediaInfo inserts media metadata or updates the existing row for the same path
func StoreMediaInfo(db *sql.DB, info types.MediaInfo) error {
	now := time.Now().UTC().Format(time.RFC3339)

	stmt, err := db.Prepare(`
		INSERT INTO media (path, format, width, height, factor, size, modified_at, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			format = excluded.format,
			width = excluded.width,
			height = excluded.height,
			factor = excluded.factor,
			size = excluded.size,
			modified_at = excluded.modified_at,
			indexed_at = excluded.indexed_at`)
	if err != nil {
		return fmt.Errorf("cannot prepare statement for %s: %w", info.Path, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		info.Path,
		info.Format,
		info.Width,
		info.Height,
		info.Factor,
		info.Size,
		info.ModifiedAt,
		now,
	)
	if err != nil {
		return fmt.Errorf("cannot store data for %s: %w", info.Path, err)
	}

	return nil
}

// GetMediaInfo returns the indexed row for path
func GetMediaInfo(db *sql.DB, path string) (*types.MediaInfo, error) {
	var m types.MediaInfo
	err := db.QueryRow(`
		SELECT id, path, format, width, height, factor, size, modified_at, indexed_at
		FROM media WHERE path = ?`, path).
		Scan(&m.ID, &m.Path, &m.Format, &m.Width, &m.Height, &m.Factor, &m.Size, &m.ModifiedAt, &m.IndexedAt)
	if err != nil {
		return nil, fmt.Errorf("cannot load media %s: %w", path, err)
	}
	return &m, nil
}

// MediaStats contains statistics about the media index
type MediaStats struct {
	TotalImages   int
	SampledImages int
	TotalBytes    int64
}

// GetMediaStats summarises the media index
func GetMediaStats(db *sql.DB) (*MediaStats, error) {
	var stats MediaStats
	err := db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN factor > 1 THEN 1 ELSE 0 END), 0), COALESCE(SUM(size), 0)
		FROM media`).Scan(&stats.TotalImages, &stats.SampledImages, &stats.TotalBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to get media stats: %w", err)
	}
	return &stats, nil
}
