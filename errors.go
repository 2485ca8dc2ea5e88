package labdither

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPalette is returned when a palette has no entries.
	ErrEmptyPalette = errors.New("palette has no entries")

	// ErrInvalidStrength is returned for a dither strength outside (0, 1].
	ErrInvalidStrength = errors.New("dither strength must be in (0, 1]")

	// ErrInvalidScale is returned for a scale factor below 1.
	ErrInvalidScale = errors.New("scale factor must be at least 1")
)

// PaletteParseError reports a palette color that is not a 6-digit hex
// string.
type PaletteParseError struct {
	Value  string
	Reason string
}

func (e *PaletteParseError) Error() string {
	return fmt.Sprintf("invalid palette color %q: %s",
		e.Value, e.Reason)
}

// ComparisonError reports a color difference that evaluated to NaN during
// the nearest color search. X and Y are the pixel position in the working
// raster, or -1 when the search was made outside a dither pass.
type ComparisonError struct {
	X, Y  int
	Index int
	Pixel Lab
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf(
		"color difference is NaN at (%d,%d) against palette entry %d (Lab %.4g,%.4g,%.4g)",
		e.X, e.Y, e.Index, e.Pixel.L, e.Pixel.A, e.Pixel.B)
}

// ImageLoadError wraps a failure to read or decode the source image.
type ImageLoadError struct {
	Path string
	Err  error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

// ImageSaveError wraps a failure to encode or write the result.
type ImageSaveError struct {
	Path string
	Err  error
}

func (e *ImageSaveError) Error() string {
	return fmt.Sprintf("saving %s: %v", e.Path, e.Err)
}

func (e *ImageSaveError) Unwrap() error { return e.Err }
