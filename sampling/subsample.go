// Package sampling computes power-of-two subsampling factors used when an image
// is decoded at reduced resolution.
package sampling

import (
	"errors"
	"fmt"

	"sdcard/types"
)

// ErrInvalidArgument is returned when bounds or target contain a non-positive value.
var ErrInvalidArgument = errors.New("invalid argument")

// CalculateInSampleSize returns the largest power-of-two factor that keeps both
// halved dimensions above the requested size.
//
// Growth stops as soon as either dimension would drop to or below its target,
// so the result favours detail in the larger dimension over bounding both.
func CalculateInSampleSize(bounds types.ImageBounds, target types.TargetSize) (int, error) {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return 0, fmt.Errorf("%w: image bounds %dx%d", ErrInvalidArgument, bounds.Width, bounds.Height)
	}
	if target.Width <= 0 || target.Height <= 0 {
		return 0, fmt.Errorf("%w: target size %dx%d", ErrInvalidArgument, target.Width, target.Height)
	}

	inSampleSize := 1
	if bounds.Height > target.Height || bounds.Width > target.Width {
		halfHeight := bounds.Height / 2
		halfWidth := bounds.Width / 2

		for halfHeight/inSampleSize > target.Height && halfWidth/inSampleSize > target.Width {
			inSampleSize *= 2
		}
	}

	return inSampleSize, nil
}

// IsPowerOfTwo reports whether factor is a valid subsample factor.
func IsPowerOfTwo(factor int) bool {
	return factor > 0 && factor&(factor-1) == 0
}

// SampledSize returns the approximate dimensions of an image decoded with factor.
// Each dimension is at least 1.
func SampledSize(bounds types.ImageBounds, factor int) types.ImageBounds {
	if factor < 1 {
		factor = 1
	}
	w := bounds.Width / factor
	h := bounds.Height / factor
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return types.ImageBounds{Width: w, Height: h}
}
