// Package storage resolves the application's files, cache and media directories
// and manages small text files in app-private storage.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"sdcard/logging"
	"sdcard/types"
)

// Layout describes where the application keeps its data on the primary root
// and on every mounted removable volume.
type Layout struct {
	Root       string
	Package    string
	MediaRoots []string
	MountTable string
}

// NewLayout creates a layout reading the kernel mount table
func NewLayout(root, pkg string, mediaRoots []string) *Layout {
	return &Layout{
		Root:       root,
		Package:    pkg,
		MediaRoots: mediaRoots,
		MountTable: DefaultMountTable,
	}
}

// Volumes returns the mounted removable volumes
func (l *Layout) Volumes() ([]types.Volume, error) {
	return removableVolumes(l.MountTable, l.MediaRoots)
}

// IsRemovableMounted reports whether at least one removable volume is mounted
func (l *Layout) IsRemovableMounted() bool {
	volumes, err := l.Volumes()
	if err != nil {
		logging.DebugLog("Cannot read mount table %s: %v", l.MountTable, err)
		return false
	}
	return len(volumes) > 0
}

// FilesDir is the primary private files directory
func (l *Layout) FilesDir() string {
	return filepath.Join(l.Root, "files")
}

// CacheDir is the primary cache directory
func (l *Layout) CacheDir() string {
	return filepath.Join(l.Root, "cache")
}

// MediaDir is the primary media directory
func (l *Layout) MediaDir() string {
	return filepath.Join(l.Root, "media")
}

// FilesDirs returns the primary files directory followed by one per removable volume
func (l *Layout) FilesDirs() []string {
	return l.withVolumes(l.FilesDir(), func(mount string) string {
		return filepath.Join(mount, "Android", "data", l.Package, "files")
	})
}

// CacheDirs returns the primary cache directory followed by one per removable volume
func (l *Layout) CacheDirs() []string {
	return l.withVolumes(l.CacheDir(), func(mount string) string {
		return filepath.Join(mount, "Android", "data", l.Package, "cache")
	})
}

// MediaDirs returns the primary media directory followed by one per removable volume
func (l *Layout) MediaDirs() []string {
	return l.withVolumes(l.MediaDir(), func(mount string) string {
		return filepath.Join(mount, "Android", "media", l.Package)
	})
}

func (l *Layout) withVolumes(primary string, perVolume func(string) string) []string {
	dirs := []string{primary}

	volumes, err := l.Volumes()
	if err != nil {
		logging.DebugLog("Listing primary directory only: %v", err)
		return dirs
	}
	for _, v := range volumes {
		dirs = append(dirs, perVolume(v.MountPoint))
	}
	return dirs
}

// EnsureDirs creates the primary files, cache and media directories
func (l *Layout) EnsureDirs() error {
	for _, dir := range []string{l.FilesDir(), l.CacheDir(), l.MediaDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
