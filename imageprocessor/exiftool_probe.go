package imageprocessor

import (
	"fmt"
	"os/exec"
	"sync"

	"sdcard/logging"
	"sdcard/types"

	"github.com/barasher/go-exiftool"
)

// ExiftoolProber reads dimensions through a long-running exiftool process.
// It covers HEIC and RAW files the Go decoders cannot parse.
type ExiftoolProber struct {
	mu  sync.Mutex
	et  *exiftool.Exiftool
	err error
}

// NewExiftoolProber creates a prober; the exiftool process starts on first use
func NewExiftoolProber() *ExiftoolProber {
	return &ExiftoolProber{}
}

// checkExiftoolCommandAvailable checks if the exiftool binary is on PATH
func checkExiftoolCommandAvailable() bool {
	_, err := exec.LookPath("exiftool")
	return err == nil
}

func (p *ExiftoolProber) tool() (*exiftool.Exiftool, error) {
	if p.et == nil && p.err == nil {
		p.et, p.err = exiftool.NewExiftool()
		if p.err != nil {
			logging.LogError("Failed to initialize exiftool: %v", p.err)
		}
	}
	return p.et, p.err
}

// ProbeFile returns ImageWidth and ImageHeight reported by exiftool
func (p *ExiftoolProber) ProbeFile(path string) (types.ImageBounds, FormatType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	et, err := p.tool()
	if err != nil {
		return types.ImageBounds{}, FormatUnknown, fmt.Errorf("exiftool unavailable: %w", err)
	}

	fileInfos := et.ExtractMetadata(path)
	if len(fileInfos) == 0 {
		return types.ImageBounds{}, FormatUnknown, fmt.Errorf("no metadata extracted for %s", path)
	}
	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		return types.ImageBounds{}, FormatUnknown, fmt.Errorf("exiftool %s: %w", path, fileInfo.Err)
	}

	width, err := fileInfo.GetInt("ImageWidth")
	if err != nil {
		return types.ImageBounds{}, FormatUnknown, fmt.Errorf("no ImageWidth for %s: %w", path, err)
	}
	height, err := fileInfo.GetInt("ImageHeight")
	if err != nil {
		return types.ImageBounds{}, FormatUnknown, fmt.Errorf("no ImageHeight for %s: %w", path, err)
	}
	if width <= 0 || height <= 0 {
		return types.ImageBounds{}, FormatUnknown, fmt.Errorf("exiftool reports %dx%d for %s", width, height, path)
	}

	format := FormatUnknown
	if fileType, err := fileInfo.GetString("FileType"); err == nil {
		format = formatFromName(fileType)
	}

	return types.ImageBounds{Width: int(width), Height: int(height)}, format, nil
}

// Close stops the exiftool process
func (p *ExiftoolProber) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.et == nil {
		return nil
	}
	err := p.et.Close()
	p.et = nil
	return err
}
