package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sdcard/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDatabase(filepath.Join(t.TempDir(), "state", "sdcard.db"))
	if err != nil {
		t.Fatalf("InitDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestViewsHistory(t *testing.T) {
	db := openTestDB(t)

	views := []types.ViewRecord{
		{Path: "/a.jpg", Width: 4000, Height: 3000, Factor: 2, DecodedWidth: 2000, DecodedHeight: 1500, ViewedAt: "2020-01-01T10:00:00Z"},
		{Path: "/b.jpg", Width: 100, Height: 100, Factor: 1, DecodedWidth: 100, DecodedHeight: 100, ViewedAt: "2020-01-02T10:00:00Z"},
		{Path: "/c.jpg", Width: 800, Height: 600, Factor: 1, DecodedWidth: 800, DecodedHeight: 600, ViewedAt: "2020-01-03T10:00:00Z"},
	}
	for _, v := range views {
		if _, err := RecordView(db, v); err != nil {
			t.Fatalf("RecordView: %v", err)
		}
	}

	got, err := RecentViews(db, 2)
	if err != nil {
		t.Fatalf("RecentViews: %v", err)
	}
	if len(got) != 2 || got[0].Path != "/c.jpg" || got[1].Path != "/b.jpg" {
		t.Fatalf("RecentViews = %+v", got)
	}

	if _, err := RecordView(db, types.ViewRecord{Path: "/d.jpg", Factor: 4}); err != nil {
		t.Fatalf("RecordView without time: %v", err)
	}
	if _, err := RecordView(db, types.ViewRecord{Path: "/e.jpg", Factor: 1}); err != nil {
		t.Fatalf("RecordView without time: %v", err)
	}
	got, _ = RecentViews(db, 2)
	if got[0].Path != "/e.jpg" || got[1].Path != "/d.jpg" {
		t.Fatalf("latest views = %+v", got)
	}
	for _, v := range got {
		ts, err := time.Parse(time.RFC3339Nano, v.ViewedAt)
		if err != nil {
			t.Fatalf("viewed_at %q: %v", v.ViewedAt, err)
		}
		if _, offset := ts.Zone(); offset != 0 || !strings.HasSuffix(v.ViewedAt, "Z") {
			t.Fatalf("viewed_at %q is not UTC", v.ViewedAt)
		}
	}
}

func TestMediaIndex(t *testing.T) {
	db := openTestDB(t)

	exists, _, err := CheckMediaExists(db, "/media/x.jpg")
	if err != nil || exists {
		t.Fatalf("CheckMediaExists on empty db = %v, %v", exists, err)
	}

	info := types.MediaInfo{Path: "/media/x.jpg", Format: "jpeg", Width: 4000, Height: 3000, Factor: 2, Size: 1234, ModifiedAt: "2026-01-01T00:00:00Z"}
	if err := StoreMediaInfo(db, info); err != nil {
		t.Fatalf("StoreMediaInfo: %v", err)
	}

	exists, mod, err := CheckMediaExists(db, "/media/x.jpg")
	if err != nil || !exists || mod != "2026-01-01T00:00:00Z" {
		t.Fatalf("CheckMediaExists = %v, %q, %v", exists, mod, err)
	}

	first, err := GetMediaInfo(db, "/media/x.jpg")
	if err != nil {
		t.Fatalf("GetMediaInfo: %v", err)
	}

	// Storing the same path again updates the row in place
	info.Width = 10
	info.ModifiedAt = "2026-02-01T00:00:00Z"
	if err := StoreMediaInfo(db, info); err != nil {
		t.Fatalf("StoreMediaInfo update: %v", err)
	}
	got, err := GetMediaInfo(db, "/media/x.jpg")
	if err != nil {
		t.Fatalf("GetMediaInfo after update: %v", err)
	}
	if got.Width != 10 || got.ModifiedAt != "2026-02-01T00:00:00Z" || got.ID != first.ID {
		t.Fatalf("GetMediaInfo after update = %+v, first id %d", got, first.ID)
	}

	if err := StoreMediaInfo(db, types.MediaInfo{Path: "/media/y.png", Format: "png", Width: 10, Height: 10, Factor: 1, Size: 66}); err != nil {
		t.Fatalf("StoreMediaInfo: %v", err)
	}

	stats, err := GetMediaStats(db)
	if err != nil {
		t.Fatalf("GetMediaStats: %v", err)
	}
	if stats.TotalImages != 2 || stats.SampledImages != 1 || stats.TotalBytes != 1300 {
		t.Fatalf("stats = %+v", stats)
	}

	if _, err := GetMediaInfo(db, "/nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("GetMediaInfo missing error = %v", err)
	}
}

func TestInitDatabaseAddsFactorColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	_, err = legacy.Exec(`CREATE TABLE media (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		format TEXT,
		width INTEGER,
		height INTEGER,
		size INTEGER,
		modified_at TEXT,
		indexed_at TEXT
	);
	INSERT INTO media (path, format, width, height, size, modified_at, indexed_at)
	VALUES ('/old.jpg', 'jpeg', 10, 10, 1, '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`)
	legacy.Close()
	if err != nil {
		t.Fatalf("create legacy schema: %v", err)
	}

	db, err := InitDatabase(path)
	if err != nil {
		t.Fatalf("InitDatabase: %v", err)
	}
	defer db.Close()

	got, err := GetMediaInfo(db, "/old.jpg")
	if err != nil {
		t.Fatalf("GetMediaInfo: %v", err)
	}
	if got.Factor != 1 {
		t.Fatalf("migrated factor = %d, want 1", got.Factor)
	}
}

func TestInitDatabaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdcard.db")
	for i := 0; i < 2; i++ {
		db, err := InitDatabase(path)
		if err != nil {
			t.Fatalf("InitDatabase #%d: %v", i, err)
		}
		db.Close()
	}
}
