package imageprocessor

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"sdcard/types"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// GoProber reads image headers with the registered Go decoders
type GoProber struct{}

// ProbeBounds returns the image dimensions without decoding pixel data
func (GoProber) ProbeBounds(r io.Reader) (types.ImageBounds, FormatType, error) {
	cfg, name, err := image.DecodeConfig(r)
	if err != nil {
		return types.ImageBounds{}, FormatUnknown, fmt.Errorf("cannot read image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return types.ImageBounds{}, FormatUnknown, fmt.Errorf("image header reports %dx%d", cfg.Width, cfg.Height)
	}
	return types.ImageBounds{Width: cfg.Width, Height: cfg.Height}, formatFromName(name), nil
}

// ProbeFile opens path and probes its header
func (p GoProber) ProbeFile(path string) (types.ImageBounds, FormatType, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.ImageBounds{}, FormatUnknown, err
	}
	defer f.Close()

	bounds, format, err := p.ProbeBounds(f)
	if err != nil {
		return bounds, format, fmt.Errorf("%s: %w", path, err)
	}
	return bounds, format, nil
}
