package scanner

import (
	"io"
	"sync"
	"time"
)

// ScanOptions defines the options for scanning
type ScanOptions struct {
	Folders      []string
	ForceRewrite bool
	DebugMode    bool
	DisplayWidth int
	MaxWorkers   int
	Output       io.Writer // progress output, stdout when nil
}

// ProcessImageResult holds the result of processing an image
type ProcessImageResult struct {
	Path    string
	Success bool
	Skipped bool
	Sampled bool
	Error   error
}

// FileStats tracks information about files to be processed
type FileStats struct {
	totalFiles int
	jpegFiles  int
}

// ScanSummary is returned once a scan finishes
type ScanSummary struct {
	Processed int
	Skipped   int
	Sampled   int
	Errors    int
	Duration  time.Duration
}

// ProgressTracker tracks progress of the scan operation
type ProgressTracker struct {
	processed int
	skipped   int
	sampled   int
	errors    int
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	stopped   chan struct{}
	mu        sync.Mutex
	out       io.Writer
	stats     FileStats
}
