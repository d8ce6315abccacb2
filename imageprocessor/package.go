// Package imageprocessor probes image bounds without decoding pixel data and
// decodes images at a reduced, power-of-two resolution.
package imageprocessor

import (
	"image"
	"io"

	"sdcard/types"
)

// BoundsProber reads image dimensions from a header-only decode
type BoundsProber interface {
	ProbeBounds(r io.Reader) (types.ImageBounds, FormatType, error)
}

// FileProber reads image dimensions of a file on disk
type FileProber interface {
	ProbeFile(path string) (types.ImageBounds, FormatType, error)
}

// Decoder decodes an image at roughly 1/factor of its size in each dimension
type Decoder interface {
	Decode(r io.Reader, factor int) (image.Image, error)
}

// Source yields a fresh stream of the picked image on every call
type Source interface {
	Open() (io.ReadCloser, error)
	Name() string
}

// DisplaySizeProvider reports the display width in pixels
type DisplaySizeProvider interface {
	DisplayWidth() int
}

// FixedDisplay is a display of a configured width
type FixedDisplay struct {
	Width int
}

// DisplayWidth returns the configured width
func (d FixedDisplay) DisplayWidth() int {
	return d.Width
}
