package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	"io"

	"sdcard/sampling"
	"sdcard/types"

	"golang.org/x/image/draw"
)

// ErrInvalidFactor is returned for factors that are not a positive power of two
var ErrInvalidFactor = fmt.Errorf("%w: subsample factor must be a positive power of two", sampling.ErrInvalidArgument)

// GoDecoder decodes with the Go image packages and scales the result down.
// Unlike a native subsampling decoder it holds the full image in memory briefly.
type GoDecoder struct {
	Scaler draw.Scaler
}

// NewGoDecoder creates a decoder using approximate bilinear scaling
func NewGoDecoder() *GoDecoder {
	return &GoDecoder{Scaler: draw.ApproxBiLinear}
}

// Decode returns the image at roughly width/factor by height/factor
func (d *GoDecoder) Decode(r io.Reader, factor int) (image.Image, error) {
	if !sampling.IsPowerOfTwo(factor) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFactor, factor)
	}

	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("cannot decode image: %w", err)
	}
	if factor == 1 {
		return src, nil
	}

	b := src.Bounds()
	size := sampling.SampledSize(types.ImageBounds{Width: b.Dx(), Height: b.Dy()}, factor)
	if size.Width <= 0 || size.Height <= 0 {
		return nil, errors.New("decoded image has no pixels")
	}

	dst := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	scaler := d.Scaler
	if scaler == nil {
		scaler = draw.ApproxBiLinear
	}
	scaler.Scale(dst, dst.Rect, src, b, draw.Src, nil)
	return dst, nil
}
