package scanner

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"sdcard/database"
	"sdcard/logging"
)

// checkAndSkipIfUnchanged checks if an image can be skipped because it hasn't changed
func checkAndSkipIfUnchanged(db *sql.DB, path string, fileInfo os.FileInfo, options ScanOptions) *ProcessImageResult {
	exists, storedModTime, err := database.CheckMediaExists(db, path)
	if err != nil {
		return &ProcessImageResult{
			Path:  path,
			Error: fmt.Errorf("database error for %s: %w", path, err),
		}
	}
	if !exists {
		return nil
	}

	storedTime, err := time.Parse(time.RFC3339, storedModTime)
	if err != nil {
		// Unparseable timestamps get re-indexed
		logging.LogWarning("Cannot parse stored time for %s: %v", path, err)
		return nil
	}

	if !fileInfo.ModTime().Truncate(time.Second).After(storedTime) {
		if options.DebugMode {
			logging.DebugLog("Skipping unchanged image: %s", path)
		}
		return &ProcessImageResult{
			Path:    path,
			Success: true,
			Skipped: true,
		}
	}

	return nil
}
