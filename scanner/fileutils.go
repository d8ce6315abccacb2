package scanner

import (
	"io/fs"
	"path/filepath"

	"sdcard/imageprocessor"
)

// countFilesToProcess counts the files any registered prober can read
func countFilesToProcess(folders []string, registry *imageprocessor.ImageLoaderRegistry) FileStats {
	stats := FileStats{}

	for _, folder := range folders {
		filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if registry.CanLoadFile(path) {
				stats.totalFiles++
				if imageprocessor.IsJPEG(path) {
					stats.jpegFiles++
				}
			}
			return nil
		})
	}

	return stats
}
