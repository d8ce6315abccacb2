package imageprocessor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"sdcard/logging"
	"sdcard/types"
)

// ImageLoaderRegistry maps file extensions to the probers able to read them
type ImageLoaderRegistry struct {
	probers  map[string][]FileProber
	exiftool *ExiftoolProber
	mutex    sync.RWMutex
}

// NewImageLoaderRegistry creates a registry with the Go prober for native formats.
// When useExiftool is set and the binary is installed, exiftool backs up every
// format and is the only prober for HEIC and RAW files.
func NewImageLoaderRegistry(useExiftool bool) *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		probers: make(map[string][]FileProber),
	}

	registry.registerStandardLoaders()
	if useExiftool && checkExiftoolCommandAvailable() {
		registry.registerExiftoolLoaders()
	}

	return registry
}

// registerStandardLoaders registers the Go prober for formats Go can decode
func (r *ImageLoaderRegistry) registerStandardLoaders() {
	var goProber GoProber
	for ext, format := range formatExtensions {
		if IsNativeFormat(format) {
			r.RegisterLoader(ext, goProber)
		}
	}
}

// registerExiftoolLoaders appends exiftool behind every registered extension
func (r *ImageLoaderRegistry) registerExiftoolLoaders() {
	r.exiftool = NewExiftoolProber()
	for ext := range formatExtensions {
		r.RegisterLoader(ext, r.exiftool)
	}
	logging.LogInfo("Registered exiftool prober for %d extensions", len(formatExtensions))
}

// RegisterLoader appends a prober for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, prober FileProber) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	r.probers[ext] = append(r.probers[ext], prober)
}

// CanLoadFile checks if any registered prober can handle the given file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.probers[strings.ToLower(filepath.Ext(path))]) > 0
}

// ProbeFile tries the registered probers in order and returns the first success
func (r *ImageLoaderRegistry) ProbeFile(path string) (types.ImageBounds, FormatType, error) {
	r.mutex.RLock()
	probers := r.probers[strings.ToLower(filepath.Ext(path))]
	r.mutex.RUnlock()

	if len(probers) == 0 {
		return types.ImageBounds{}, FormatUnknown, fmt.Errorf("no suitable prober found for: %s", path)
	}

	var errs []error
	for _, p := range probers {
		bounds, format, err := p.ProbeFile(path)
		if err == nil {
			if format == FormatUnknown {
				format = GetFileFormat(path)
			}
			return bounds, format, nil
		}
		logging.DebugLog("Prober %T failed for %s: %v", p, path, err)
		errs = append(errs, err)
	}
	return types.ImageBounds{}, FormatUnknown, errors.Join(errs...)
}

// Close releases the exiftool process if one was started
func (r *ImageLoaderRegistry) Close() error {
	if r.exiftool != nil {
		return r.exiftool.Close()
	}
	return nil
}
