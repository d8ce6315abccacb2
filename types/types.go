package types

import "time"

// ImageBounds holds the pixel dimensions of a source image, read without decoding its pixels
type ImageBounds struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TargetSize is the requested maximum display size
type TargetSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SavedFile describes a text file in app-private storage
type SavedFile struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Volume is a mounted removable storage volume
type Volume struct {
	MountPoint string `json:"mount_point"`
	Device     string `json:"device"`
	FSType     string `json:"fs_type"`
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}

// ViewRecord holds one displayed image in the view history
type ViewRecord struct {
	ID            int64  `json:"id"`
	Path          string `json:"path"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Factor        int    `json:"factor"`
	DecodedWidth  int    `json:"decoded_width"`
	DecodedHeight int    `json:"decoded_height"`
	ViewedAt      string `json:"viewed_at"`
}

// MediaInfo holds the indexed metadata of an image in a media directory
type MediaInfo struct {
	ID         int64  `json:"id"`
	Path       string `json:"path"`
	Format     string `json:"format"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Factor     int    `json:"factor"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
	IndexedAt  string `json:"indexed_at"`
}
