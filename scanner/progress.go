package scanner

import (
	"fmt"
	"io"
	"time"

	"sdcard/logging"
)

// NewProgressTracker starts displaying progress and consuming results
func NewProgressTracker(stats FileStats, resultsChan <-chan ProcessImageResult, out io.Writer) *ProgressTracker {
	tracker := &ProgressTracker{
		ticker:   time.NewTicker(500 * time.Millisecond),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		stopped:  make(chan struct{}),
		out:      out,
		stats:    stats,
	}

	go tracker.displayProgress()
	go tracker.processResults(resultsChan)

	return tracker
}

// displayProgress shows the progress periodically
func (p *ProgressTracker) displayProgress() {
	defer close(p.stopped)

	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.mu.Lock()
			if p.errors > 0 {
				fmt.Fprintf(p.out, "\rProgress: %d/%d (Skipped: %d, Errors: %d)",
					p.processed, p.stats.totalFiles, p.skipped, p.errors)
			} else {
				fmt.Fprintf(p.out, "\rProgress: %d/%d (Skipped: %d)",
					p.processed, p.stats.totalFiles, p.skipped)
			}
			p.mu.Unlock()
		}
	}
}

// processResults updates the tracker state until resultsChan is closed
func (p *ProgressTracker) processResults(resultsChan <-chan ProcessImageResult) {
	defer close(p.finished)

	for result := range resultsChan {
		p.mu.Lock()
		p.processed++

		switch {
		case !result.Success:
			p.errors++
			msg := "unknown error"
			if result.Error != nil {
				msg = result.Error.Error()
			}
			logging.LogImageProcessed(result.Path, false, msg)
		case result.Skipped:
			p.skipped++
		default:
			if result.Sampled {
				p.sampled++
			}
			logging.LogImageProcessed(result.Path, true, "")
		}

		p.mu.Unlock()
	}
}

// Stop waits for all results to be consumed and ends the progress display.
// The results channel must already be closed.
func (p *ProgressTracker) Stop() {
	<-p.finished
	p.ticker.Stop()
	close(p.done)
	<-p.stopped
}

// Summary returns the counters collected so far
func (p *ProgressTracker) Summary(elapsed time.Duration) ScanSummary {
	p.mu.Lock()
	defer p.mu.Unlock()

	return ScanSummary{
		Processed: p.processed,
		Skipped:   p.skipped,
		Sampled:   p.sampled,
		Errors:    p.errors,
		Duration:  elapsed,
	}
}

// printStartupInfo displays information about the scan before starting
func printStartupInfo(out io.Writer, stats FileStats, options ScanOptions) {
	fmt.Fprintf(out, "Starting media indexing...\nTotal image files to process: %d (including %d JPEG files)\n",
		stats.totalFiles, stats.jpegFiles)
	fmt.Fprintf(out, "Display width: %d\n", options.DisplayWidth)
	fmt.Fprintf(out, "Force rewrite mode: %v\n", options.ForceRewrite)

	if options.DebugMode {
		logging.DebugLog("Found %d image files to process (%d JPEG files) in %v",
			stats.totalFiles, stats.jpegFiles, options.Folders)
	}
}

// printCompletionStats displays statistics after scan completion
func printCompletionStats(out io.Writer, summary ScanSummary, options ScanOptions) {
	if options.DebugMode {
		logging.DebugLog("Scan completed in %v. Processed: %d, Skipped: %d, Sampled: %d, Errors: %d",
			summary.Duration, summary.Processed, summary.Skipped, summary.Sampled, summary.Errors)
	}

	fmt.Fprintln(out, "\nIndexing complete.")
	fmt.Fprintf(out, "Processed %d images in %v.\n", summary.Processed, summary.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "%d images need subsampling at this display width.\n", summary.Sampled)

	if summary.Errors > 0 {
		fmt.Fprintf(out, "Encountered %d errors during indexing.\n", summary.Errors)
		fmt.Fprintln(out, "Check the log file for details.")
	}
}
