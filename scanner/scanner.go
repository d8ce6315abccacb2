// Package scanner indexes the images in the media directories, recording their
// bounds and the subsample factor each needs at the configured display width.
package scanner

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"sdcard/database"
	"sdcard/imageprocessor"
	"sdcard/logging"
	"sdcard/sampling"
	"sdcard/types"

	"golang.org/x/sync/errgroup"
)

// ScanMedia walks the configured folders and stores media information in the database
func ScanMedia(ctx context.Context, db *sql.DB, registry *imageprocessor.ImageLoaderRegistry, options ScanOptions) (ScanSummary, error) {
	if options.DisplayWidth <= 0 {
		return ScanSummary{}, fmt.Errorf("%w: display width %d", sampling.ErrInvalidArgument, options.DisplayWidth)
	}
	if options.MaxWorkers < 1 {
		options.MaxWorkers = 1
	}
	out := options.Output
	if out == nil {
		out = os.Stdout
	}

	fileStats := countFilesToProcess(options.Folders, registry)
	printStartupInfo(out, fileStats, options)

	resultsChan := make(chan ProcessImageResult, 100)
	tracker := NewProgressTracker(fileStats, resultsChan, out)

	startTime := time.Now()
	err := walkAndProcessFiles(ctx, db, registry, options, resultsChan)
	close(resultsChan)
	tracker.Stop()

	summary := tracker.Summary(time.Since(startTime))
	printCompletionStats(out, summary, options)

	return summary, err
}

// walkAndProcessFiles traverses the folders and processes each image on a bounded worker pool
func walkAndProcessFiles(ctx context.Context, db *sql.DB, registry *imageprocessor.ImageLoaderRegistry, options ScanOptions, resultsChan chan<- ProcessImageResult) error {
	log := logging.Component("scanner")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(options.MaxWorkers)

	var walkErr error
	for _, folder := range options.Folders {
		walkErr = filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("cannot access path")
				return nil
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if d.IsDir() || !registry.CanLoadFile(path) {
				return nil
			}

			g.Go(func() error {
				resultsChan <- processAndStoreImage(db, registry, path, options)
				return nil
			})
			return nil
		})
		if walkErr != nil {
			log.Debug().Err(walkErr).Str("folder", folder).Msg("walk stopped")
			break
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if walkErr != nil {
		return walkErr
	}
	return ctx.Err()
}

// processAndStoreImage probes a single image and stores it in the database
func processAndStoreImage(db *sql.DB, registry *imageprocessor.ImageLoaderRegistry, path string, options ScanOptions) ProcessImageResult {
	result := ProcessImageResult{Path: path}

	fileInfo, err := os.Stat(path)
	if err != nil {
		result.Error = fmt.Errorf("cannot stat file %s: %w", path, err)
		return result
	}

	if !options.ForceRewrite {
		if skipResult := checkAndSkipIfUnchanged(db, path, fileInfo, options); skipResult != nil {
			return *skipResult
		}
	}

	bounds, format, err := registry.ProbeFile(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to probe image %s: %w", path, err)
		return result
	}

	target := types.TargetSize{Width: options.DisplayWidth, Height: options.DisplayWidth}
	factor, err := sampling.CalculateInSampleSize(bounds, target)
	if err != nil {
		result.Error = fmt.Errorf("cannot compute factor for %s: %w", path, err)
		return result
	}

	info := types.MediaInfo{
		Path:       path,
		Format:     string(format),
		Width:      bounds.Width,
		Height:     bounds.Height,
		Factor:     factor,
		Size:       fileInfo.Size(),
		ModifiedAt: fileInfo.ModTime().UTC().Format(time.RFC3339),
	}

	if err := database.StoreMediaInfo(db, info); err != nil {
		result.Error = fmt.Errorf("cannot store data for %s: %w", path, err)
		return result
	}

	if options.DebugMode {
		logging.DebugLog("Indexed %s: %dx%d %s, factor %d", path, bounds.Width, bounds.Height, format, factor)
	}

	result.Success = true
	result.Sampled = factor > 1
	return result
}
