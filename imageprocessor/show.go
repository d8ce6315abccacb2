package imageprocessor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"

	"sdcard/logging"
	"sdcard/sampling"
	"sdcard/types"
)

var (
	// ErrNoSelection is returned when no image was picked
	ErrNoSelection = errors.New("no image selected")

	// ErrNotJPEG is returned when the picked file is not a JPEG
	ErrNotJPEG = errors.New("selected file is not a JPEG image")
)

// DefaultPreviewQuality is the JPEG quality of written previews
const DefaultPreviewQuality = 85

// FileSource is an image picked from the local filesystem
type FileSource struct {
	Path string
}

// Open opens the file for reading
func (s FileSource) Open() (io.ReadCloser, error) {
	return os.Open(s.Path)
}

// Name returns the file path
func (s FileSource) Name() string {
	return s.Path
}

// SampledImage is the result of showing an image at display size
type SampledImage struct {
	Source  string
	Bounds  types.ImageBounds
	Target  types.TargetSize
	Factor  int
	Decoded types.ImageBounds
	Image   image.Image
}

// ShowImage probes the picked JPEG, computes the subsample factor for the
// display width and decodes it at that reduced size.
func ShowImage(ctx context.Context, src Source, prober BoundsProber, display DisplaySizeProvider, dec Decoder) (*SampledImage, error) {
	if src == nil {
		return nil, ErrNoSelection
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds, err := probeJPEG(src, prober)
	if err != nil {
		return nil, err
	}

	reqSize := display.DisplayWidth()
	target := types.TargetSize{Width: reqSize, Height: reqSize}
	factor, err := sampling.CalculateInSampleSize(bounds, target)
	if err != nil {
		return nil, fmt.Errorf("cannot compute sample size for %s: %w", src.Name(), err)
	}
	logging.DebugLog("Showing %s: %dx%d, target %d, factor %d", src.Name(), bounds.Width, bounds.Height, reqSize, factor)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("cannot reopen %s: %w", src.Name(), err)
	}
	defer rc.Close()

	img, err := dec.Decode(rc, factor)
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", src.Name(), err)
	}

	b := img.Bounds()
	return &SampledImage{
		Source:  src.Name(),
		Bounds:  bounds,
		Target:  target,
		Factor:  factor,
		Decoded: types.ImageBounds{Width: b.Dx(), Height: b.Dy()},
		Image:   img,
	}, nil
}

// probeJPEG checks the JPEG signature and reads the bounds in a single pass
func probeJPEG(src Source, prober BoundsProber) (types.ImageBounds, error) {
	rc, err := src.Open()
	if err != nil {
		return types.ImageBounds{}, fmt.Errorf("cannot open %s: %w", src.Name(), err)
	}
	defer rc.Close()

	header := make([]byte, 3)
	n, err := io.ReadFull(rc, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return types.ImageBounds{}, fmt.Errorf("cannot read %s: %w", src.Name(), err)
	}
	if !hasJPEGSignature(header[:n]) {
		return types.ImageBounds{}, fmt.Errorf("%w: %s", ErrNotJPEG, src.Name())
	}

	bounds, _, err := prober.ProbeBounds(io.MultiReader(bytes.NewReader(header[:n]), rc))
	if err != nil {
		return types.ImageBounds{}, fmt.Errorf("%s: %w", src.Name(), err)
	}
	return bounds, nil
}

// WritePreview encodes img as JPEG at path, creating parent directories
func WritePreview(img image.Image, path string, quality int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create preview dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create preview file: %w", err)
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode preview to jpeg: %w", err)
	}
	return f.Close()
}
