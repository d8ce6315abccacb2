// Package opencv decodes images through OpenCV, using its reduced-resolution
// JPEG decode so the full-size pixel buffer is never allocated.
package opencv

import (
	"fmt"
	"image"
	"io"

	"sdcard/imageprocessor"
	"sdcard/logging"
	"sdcard/sampling"

	"gocv.io/x/gocv"
)

// maxReducedFactor is the largest factor OpenCV can apply while decoding
const maxReducedFactor = 8

// Decoder implements imageprocessor.Decoder with gocv
type Decoder struct{}

// NewDecoder creates an OpenCV-backed decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// readFlag picks the IMRead flag for factor and the remaining factor to apply by resizing
func readFlag(factor int) (gocv.IMReadFlag, int) {
	switch {
	case factor >= maxReducedFactor:
		return gocv.IMReadReducedColor8, factor / maxReducedFactor
	case factor == 4:
		return gocv.IMReadReducedColor4, 1
	case factor == 2:
		return gocv.IMReadReducedColor2, 1
	default:
		return gocv.IMReadColor, 1
	}
}

// Decode reads the encoded image and returns it at roughly 1/factor size
func (d *Decoder) Decode(r io.Reader, factor int) (image.Image, error) {
	if !sampling.IsPowerOfTwo(factor) {
		return nil, fmt.Errorf("%w: %d", imageprocessor.ErrInvalidFactor, factor)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	flag, remaining := readFlag(factor)
	mat, err := gocv.IMDecode(data, flag)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image with OpenCV: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("OpenCV returned an empty image")
	}

	if remaining > 1 {
		w := mat.Cols() / remaining
		h := mat.Rows() / remaining
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}

		resized := gocv.NewMat()
		defer resized.Close()

		gocv.Resize(mat, &resized, image.Point{X: w, Y: h}, 0, 0, gocv.InterpolationArea)
		logging.DebugLog("OpenCV decode at 1/%d, resized %dx%d -> %dx%d", maxReducedFactor, mat.Cols(), mat.Rows(), w, h)
		return resized.ToImage()
	}

	return mat.ToImage()
}
